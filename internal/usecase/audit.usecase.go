package usecase

import (
	"context"
	"fmt"
	"net"
	"strings"

	"accounts-service/internal/domain"
	"accounts-service/pkg/id"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// AuditRepository is the append-only storage contract for visit and login
// trails. There are deliberately no update or delete operations.
type AuditRepository interface {
	CreateVisit(ctx context.Context, v *domain.VisitRecord) error
	CreateLoginAttempt(ctx context.Context, a *domain.LoginAttempt) error
	ListVisits(ctx context.Context, userID string, limit int) ([]*domain.VisitRecord, error)
	ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*domain.LoginAttempt, error)
}

// GeoIPService resolves a login location from an IP address. Optional.
type GeoIPService interface {
	GetLocation(ip string) (country, city string, err error)
	Close() error
}

type maxmindGeoIP struct {
	db *geoip2.Reader
}

// NewGeoIPService opens a MaxMind city database.
func NewGeoIPService(dbPath string) (GeoIPService, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &maxmindGeoIP{db: db}, nil
}

// ErrInvalidIP is returned when the IP cannot be parsed
var ErrInvalidIP = fmt.Errorf("invalid IP address")

func (g *maxmindGeoIP) GetLocation(ip string) (string, string, error) {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return "", "", ErrInvalidIP
	}

	record, err := g.db.City(parsedIP)
	if err != nil {
		return "", "", err
	}

	country := record.Country.Names["en"]
	city := ""
	if len(record.City.Names) > 0 {
		city = record.City.Names["en"]
	}

	return country, city, nil
}

func (g *maxmindGeoIP) Close() error {
	return g.db.Close()
}

type AuditUsecase struct {
	repo   AuditRepository
	geoIP  GeoIPService // nil when no city database is configured
	sf     *id.Snowflake
	logger *zap.Logger
}

func NewAuditUsecase(repo AuditRepository, geoIP GeoIPService, sf *id.Snowflake, logger *zap.Logger) *AuditUsecase {
	return &AuditUsecase{
		repo:   repo,
		geoIP:  geoIP,
		sf:     sf,
		logger: logger,
	}
}

// RecordVisit appends an immutable visit record with a server-assigned
// timestamp and returns it.
func (uc *AuditUsecase) RecordVisit(ctx context.Context, userID, url string, referer *string, userAgent string) (*domain.VisitRecord, error) {
	v := &domain.VisitRecord{
		ID:        uc.sf.Generate(),
		UserID:    userID,
		URL:       url,
		Referer:   referer,
		UserAgent: userAgent,
	}
	if err := uc.repo.CreateVisit(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RecordLoginAttempt appends an immutable login-trail record. When location
// is absent it is resolved from the IP through the configured GeoIP reader.
func (uc *AuditUsecase) RecordLoginAttempt(ctx context.Context, userID, ip, userAgent string, successful bool, location *string) (*domain.LoginAttempt, error) {
	if location == nil {
		if resolved := uc.resolveLocation(ip); resolved != "" {
			location = &resolved
		}
	}

	a := &domain.LoginAttempt{
		ID:         uc.sf.Generate(),
		UserID:     userID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Successful: successful,
		Location:   location,
	}
	if err := uc.repo.CreateLoginAttempt(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (uc *AuditUsecase) ListVisits(ctx context.Context, userID string, limit int) ([]*domain.VisitRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.repo.ListVisits(ctx, userID, limit)
}

func (uc *AuditUsecase) ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*domain.LoginAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.repo.ListLoginAttempts(ctx, userID, limit)
}

func (uc *AuditUsecase) resolveLocation(ip string) string {
	if uc.geoIP == nil {
		return ""
	}

	country, city, err := uc.geoIP.GetLocation(ip)
	if err != nil {
		uc.logger.Debug("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
		return ""
	}

	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}
