package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// PremiumService : abonnement et upload d'images, tous deux délégués au backend.
type PremiumService struct {
	media ports.MediaBackend
}

func NewPremiumService(media ports.MediaBackend) *PremiumService {
	return &PremiumService{media: media}
}

// Checkout renvoie l'URL de la passerelle de paiement.
func (s *PremiumService) Checkout(ctx context.Context, viewer *domain.Identity, plan string) (string, error) {
	if err := requireViewer(viewer); err != nil {
		return "", err
	}
	if viewer.IsPremium {
		return "", domain.ErrAlreadyPremium
	}
	p, err := domain.ParsePlan(plan)
	if err != nil {
		return "", err
	}
	url, err := s.media.InitiatePayment(ctx, viewer.ID, string(p))
	if err != nil {
		return "", fmt.Errorf("initiate payment: %w", err)
	}
	return url, nil
}

func (s *PremiumService) UploadImage(ctx context.Context, viewer *domain.Identity, cmd ports.UploadCmd) (string, error) {
	if err := requireViewer(viewer); err != nil {
		return "", err
	}
	if cmd.Size > domain.MaxImageSize {
		return "", domain.ErrImageTooLarge
	}
	if !strings.HasPrefix(cmd.ContentType, "image/") {
		return "", domain.ErrInvalidImage
	}
	url, err := s.media.UploadImage(ctx, cmd.Filename, cmd.ContentType, cmd.Body)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}
