package handlers

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"spotted/internal/database"
	"spotted/internal/models"
	"spotted/internal/sessions"
)

// fakeStore mirrors database.Store semantics in memory.
type fakeStore struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]models.User
	spots     map[primitive.ObjectID]models.Spot
	comments  map[primitive.ObjectID]models.Comment
	spotOrder []primitive.ObjectID
	pingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[primitive.ObjectID]models.User{},
		spots:    map[primitive.ObjectID]models.Spot{},
		comments: map[primitive.ObjectID]models.Comment{},
	}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) CreateUser(_ context.Context, user models.User) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return primitive.NilObjectID, duplicateKeyError()
		}
	}
	user.ID = primitive.NewObjectID()
	s.users[user.ID] = user
	return user.ID, nil
}

func (s *fakeStore) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (s *fakeStore) UpdateUser(_ context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	for field, value := range set {
		v := value.(string)
		switch field {
		case "username":
			user.Username = v
		case "firstname":
			user.FirstName = v
		case "lastname":
			user.LastName = v
		case "email":
			user.Email = v
		case "car":
			user.Car = v
		case "camera":
			user.Camera = v
		case "password":
			user.PasswordHash = v
		}
	}
	s.users[id] = user
	return &user, nil
}

func (s *fakeStore) FindUserWithSpots(_ context.Context, id primitive.ObjectID) (*models.UserWithSpots, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := models.UserWithSpots{ID: user.ID, UserProfile: user.UserProfile, Spots: []models.Spot{}}
	for _, spotID := range user.Spots {
		if spot, ok := s.spots[spotID]; ok {
			out.Spots = append(out.Spots, spot)
		}
	}
	return &out, nil
}

func (s *fakeStore) CreateSpot(_ context.Context, spot models.Spot) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot.ID = primitive.NewObjectID()
	s.spots[spot.ID] = spot
	s.spotOrder = append(s.spotOrder, spot.ID)
	if user, ok := s.users[spot.Author]; ok {
		user.Spots = append(user.Spots, spot.ID)
		s.users[user.ID] = user
	}
	return spot.ID, nil
}

func (s *fakeStore) author(id primitive.ObjectID) *models.User {
	if user, ok := s.users[id]; ok {
		return &user
	}
	return nil
}

func (s *fakeStore) ListSpots(context.Context) ([]models.SpotWithAuthor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SpotWithAuthor, 0)
	for _, id := range s.spotOrder {
		spot, ok := s.spots[id]
		if !ok {
			continue
		}
		out = append(out, models.SpotWithAuthor{
			ID:         spot.ID,
			SpotFields: spot.SpotFields,
			Comments:   spot.Comments,
			Author:     s.author(spot.Author),
		})
	}
	return out, nil
}

func (s *fakeStore) FindSpot(_ context.Context, id primitive.ObjectID) (*models.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot, ok := s.spots[id]
	if !ok {
		return nil, nil
	}
	return &spot, nil
}

func (s *fakeStore) FindSpotDetail(_ context.Context, id primitive.ObjectID) (*models.SpotDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot, ok := s.spots[id]
	if !ok {
		return nil, nil
	}
	detail := models.SpotDetail{
		ID:         spot.ID,
		SpotFields: spot.SpotFields,
		Comments:   []models.CommentWithAuthor{},
		Author:     s.author(spot.Author),
	}
	for _, commentID := range spot.Comments {
		if comment, ok := s.comments[commentID]; ok {
			detail.Comments = append(detail.Comments, models.CommentWithAuthor{
				ID:      comment.ID,
				Author:  s.author(comment.Author),
				Spot:    comment.Spot,
				Comment: comment.Comment,
			})
		}
	}
	return &detail, nil
}

func (s *fakeStore) DeleteSpot(_ context.Context, spot models.Spot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.spots, spot.ID)
	if user, ok := s.users[spot.Author]; ok {
		kept := user.Spots[:0]
		for _, id := range user.Spots {
			if id != spot.ID {
				kept = append(kept, id)
			}
		}
		user.Spots = kept
		s.users[user.ID] = user
	}
	for id, comment := range s.comments {
		if comment.Spot == spot.ID {
			delete(s.comments, id)
		}
	}
	return nil
}

func (s *fakeStore) RateSpot(_ context.Context, spotID primitive.ObjectID, userID string, star float64) (*models.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot, ok := s.spots[spotID]
	if !ok || ratedBy(spot, userID) {
		return nil, nil
	}
	spot.RatingCount++
	spot.Ratings = append(spot.Ratings, star)
	spot.UserRating = append(spot.UserRating, userID)
	s.spots[spotID] = spot
	return &spot, nil
}

func ratedBy(spot models.Spot, userID string) bool {
	for _, id := range spot.UserRating {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateComment(_ context.Context, comment models.Comment) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	s.comments[comment.ID] = comment
	if spot, ok := s.spots[comment.Spot]; ok {
		spot.Comments = append(spot.Comments, comment.ID)
		s.spots[spot.ID] = spot
	}
	return comment.ID, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.Session{}}
}

func (s *fakeSessionStore) Create(_ context.Context, tokenHash string, user models.User, expiresAt time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := models.Session{ID: primitive.NewObjectID(), TokenHash: tokenHash, User: user, CreatedAt: time.Now(), ExpiresAt: expiresAt}
	s.sessions[tokenHash] = session
	return &session, nil
}

func (s *fakeSessionStore) Get(_ context.Context, tokenHash string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, sessions.ErrNoSession
	}
	return &session, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}
