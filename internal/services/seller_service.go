package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"soukBack/internal/models"
	"soukBack/internal/storage"
	"soukBack/internal/validation"
)

type SellerService struct {
	Sellers  SellerStore
	Storage  storage.Storage
	Notifier *Notifier
	Log      Logger
}

// EnsureProfile returns the seller profile for user, creating a minimal one if
// the sign-up insert never happened.
func (s *SellerService) EnsureProfile(ctx context.Context, user models.User) (models.SellerProfile, error) {
	p, err := s.Sellers.Get(ctx, user.ID)
	if err == nil || !errors.Is(err, models.ErrNoRecord) {
		return p, err
	}

	name, _, _ := strings.Cut(user.Email, "@")
	p, err = s.Sellers.Create(ctx, models.SellerProfile{ID: user.ID, Name: name})
	if errors.Is(err, models.ErrDuplicateRecord) {
		return s.Sellers.Get(ctx, user.ID)
	}
	if err != nil {
		return models.SellerProfile{}, err
	}
	logger(s.Log).Infof("created missing seller profile for %s", user.ID)
	return p, nil
}

func (s *SellerService) Profile(ctx context.Context, id string) (models.SellerProfile, error) {
	return s.Sellers.Get(ctx, id)
}

func (s *SellerService) UpdateProfile(ctx context.Context, id string, req models.ProfileUpdateRequest) (models.SellerProfile, error) {
	errs := validation.Errors{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs.Add("name", "name is required")
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		errs.Add("phone", err.Error())
	}
	if err := errs.Err(); err != nil {
		return models.SellerProfile{}, err
	}

	p, err := s.Sellers.Update(ctx, id, name, phone)
	if err != nil {
		return models.SellerProfile{}, err
	}
	s.Notifier.Publish(models.AuthEvent{Type: models.AuthProfileUpdated, UserID: id, At: time.Now()})
	return p, nil
}

// UploadAvatar stores a new avatar and removes the previous one.
func (s *SellerService) UploadAvatar(ctx context.Context, id string, up Upload) (models.SellerProfile, error) {
	if err := validation.ValidateImage(up.imageFile(), validation.AvatarImage); err != nil {
		return models.SellerProfile{}, validation.Errors{"avatar": err.Error()}
	}
	current, err := s.Sellers.Get(ctx, id)
	if err != nil {
		return models.SellerProfile{}, err
	}

	path := storage.ObjectKey(id, validation.ImageExtension(up.ContentType, up.Filename))
	url, err := s.Storage.Upload(ctx, AvatarsBucket, path, up.Data, up.ContentType)
	if err != nil {
		return models.SellerProfile{}, UploadErrors{newFileError(up, err)}
	}
	if err := s.Sellers.SetAvatar(ctx, id, &url); err != nil {
		s.deleteObject(ctx, AvatarsBucket, path)
		return models.SellerProfile{}, err
	}

	if current.AvatarURL != nil {
		if bucket, old, ok := s.Storage.ObjectPath(*current.AvatarURL); ok {
			s.deleteObject(ctx, bucket, old)
		}
	}
	current.AvatarURL = &url
	s.Notifier.Publish(models.AuthEvent{Type: models.AuthProfileUpdated, UserID: id, At: time.Now()})
	return current, nil
}

func (s *SellerService) SetDeviceToken(ctx context.Context, id, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return validation.Errors{"token": "device token is required"}
	}
	return s.Sellers.SetDeviceToken(ctx, id, token)
}

func (s *SellerService) deleteObject(ctx context.Context, bucket, path string) {
	ctx, cancel := detached(ctx)
	defer cancel()
	if err := s.Storage.Delete(ctx, bucket, path); err != nil {
		logger(s.Log).Errorf("delete %s/%s: %v", bucket, path, err)
	}
}
