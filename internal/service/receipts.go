package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/finix/internal/models"
)

const maxReceiptSize = 5 << 20

// ScanReceipt reads transaction details from a receipt image
func (s *Service) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.ScannedReceipt, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, invalid("receipt image is required")
	}
	if len(image) > maxReceiptSize {
		return nil, invalid("receipt image must be smaller than 5MB")
	}
	if s.scanner == nil {
		return nil, fmt.Errorf("receipt scanning is not configured")
	}
	receipt, err := s.scanner.ScanReceipt(ctx, image, mimeType)
	if errors.Is(err, models.ErrUnreadableReceipt) {
		return nil, invalid(err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan receipt: %w", err)
	}
	return receipt, nil
}
