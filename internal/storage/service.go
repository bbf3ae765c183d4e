package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"backend-hikelog/internal/db"

	"github.com/google/uuid"
)

const (
	KindRouteMap = "route_map"
	KindPhoto    = "photo"

	baseURL   = "https://storage.example/"
	uploadTTL = 15 * time.Minute
)

var ErrInvalidKind = errors.New("kind must be one of: route_map, photo")

// Object is an upload slot registered for a user, optionally tied to a hike.
type Object struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	HikeID    *string   `json:"hikeId"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) SaveObject(ctx context.Context, userID, hikeID, fileName, kind string) (Object, error) {
	if kind != KindRouteMap && kind != KindPhoto {
		return Object{}, ErrInvalidKind
	}
	obj := Object{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		ExpiresAt: time.Now().Add(uploadTTL),
	}
	if hikeID != "" {
		obj.HikeID = &hikeID
	}
	obj.URL = objectURL(userID, obj.ID, fileName)

	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, hike_id, url, kind)
		VALUES ($1,$2,$3,$4,$5)
	`, obj.ID, obj.UserID, obj.HikeID, obj.URL, obj.Kind)
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

// objectURL keys objects by owner and id; only the base name of the client's
// file name survives.
func objectURL(userID, id, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return baseURL + userID + "/" + id + "-" + name
}
