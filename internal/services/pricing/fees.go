package pricing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

const feeCacheKey = "platform_fee:active"

type Rates struct {
	FeePercentage float64 `json:"fee_percentage"`
	TaxPercentage float64 `json:"tax_percentage"`
}

// FeeService resolves the active platform fee. Tax is a configured constant.
type FeeService struct {
	DB         *gorm.DB
	Cache      redis.Cmdable // optional
	Log        logrus.FieldLogger
	DefaultFee float64
	TaxPercent float64
	CacheTTL   time.Duration
}

func NewFeeService(db *gorm.DB, cache redis.Cmdable, log logrus.FieldLogger, defaultFee, tax float64) *FeeService {
	return &FeeService{
		DB:         db,
		Cache:      cache,
		Log:        log,
		DefaultFee: defaultFee,
		TaxPercent: tax,
		CacheTTL:   10 * time.Minute,
	}
}

// Current returns the active fee, falling back to the default when no row is active
// or the lookup fails.
func (s *FeeService) Current(ctx context.Context) Rates {
	rates := Rates{FeePercentage: s.DefaultFee, TaxPercentage: s.TaxPercent}

	if s.Cache != nil {
		if v, err := s.Cache.Get(ctx, feeCacheKey).Result(); err == nil {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				rates.FeePercentage = f
				return rates
			}
		} else if !errors.Is(err, redis.Nil) {
			s.Log.WithError(err).Warn("platform fee cache read failed")
		}
	}

	var fee models.PlatformFee
	err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").First(&fee).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.Log.WithError(err).Error("fetch platform fee")
		}
		return rates
	}
	rates.FeePercentage = fee.FeePercentage

	if s.Cache != nil {
		v := strconv.FormatFloat(fee.FeePercentage, 'f', -1, 64)
		if err := s.Cache.Set(ctx, feeCacheKey, v, s.CacheTTL).Err(); err != nil {
			s.Log.WithError(err).Warn("platform fee cache write failed")
		}
	}
	return rates
}

// Update deactivates the current row and activates a new one.
func (s *FeeService) Update(ctx context.Context, pct float64) (*models.PlatformFee, error) {
	if pct < 0 || pct > 100 {
		return nil, errors.New("fee_percentage must be between 0 and 100")
	}

	fee := models.PlatformFee{FeePercentage: pct, IsActive: true}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PlatformFee{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&fee).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Del(ctx, feeCacheKey).Err(); err != nil {
			s.Log.WithError(err).Warn("platform fee cache invalidation failed")
		}
	}
	return &fee, nil
}

func (s *FeeService) Estimate(ctx context.Context, hourlyRate float64) Breakdown {
	r := s.Current(ctx)
	return Estimate(hourlyRate, r.FeePercentage, r.TaxPercentage)
}
