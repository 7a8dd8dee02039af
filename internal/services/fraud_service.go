// internal/services/fraud_service.go
package services

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

var (
	ErrTooManyReferrals  = errors.New("too many referrals in the last 24 hours")
	ErrSuspiciousTiming  = errors.New("referrals created suspiciously close together")
	ErrSuspiciousPattern = errors.New("referral data matches a suspicious pattern")
	ErrDisallowedNetwork = errors.New("request originates from a disallowed network")
)

const (
	fraudWindow          = 24 * time.Hour
	maxReferralsPerDay   = 10
	minReferralGap       = 5 * time.Second
	maxSharedEmailPrefix = 3
)

// Private and link-local ranges; a referral claiming to come from one of
// these is spoofed or internal traffic.
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
)

// Major domestic (VN) allocations. A foreign origin is only logged, not
// blocked; cross-border traffic is legitimate but worth watching.
var domesticNetworks = mustParseCIDRs(
	"14.160.0.0/11",
	"27.64.0.0/12",
	"42.112.0.0/13",
	"113.160.0.0/11",
	"115.72.0.0/13",
	"171.224.0.0/11",
	"203.162.0.0/16",
	"222.252.0.0/14",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("bad CIDR %q: %v", cidr, err))
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func ipInAny(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// FraudService gates referral creation. It keeps no state of its own; every
// signal is computed from the affiliate's recent referral rows.
type FraudService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFraudService(db *gorm.DB) *FraudService {
	return &FraudService{db: db, now: time.Now}
}

func (s *FraudService) recentReferrals(affiliateID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	since := s.now().Add(-fraudWindow)
	if err := s.db.Where("affiliate_id = ? AND created_at > ?", affiliateID, since).
		Order("created_at asc").Find(&referrals).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent referrals: %w", err)
	}
	return referrals, nil
}

// CheckReferral evaluates a prospective referral. Hard failures compose with
// AND semantics; the foreign-origin signal only logs.
func (s *FraudService) CheckReferral(affiliateID uuid.UUID, email, phone, ip string) error {
	recent, err := s.recentReferrals(affiliateID)
	if err != nil {
		return err
	}

	if err := s.checkRate(recent); err != nil {
		return err
	}
	if err := s.checkTiming(recent); err != nil {
		return err
	}
	if err := s.checkPattern(recent, email, phone); err != nil {
		return err
	}
	if err := s.checkNetwork(affiliateID, ip); err != nil {
		return err
	}

	return nil
}

func (s *FraudService) checkRate(recent []models.Referral) error {
	if len(recent)+1 > maxReferralsPerDay {
		return ErrTooManyReferrals
	}
	return nil
}

func (s *FraudService) checkTiming(recent []models.Referral) error {
	if len(recent) < 2 {
		return nil
	}

	sorted := make([]models.Referral, len(recent))
	copy(sorted, recent)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].CreatedAt.Sub(sorted[i-1].CreatedAt) < minReferralGap {
			return ErrSuspiciousTiming
		}
	}
	return nil
}

func (s *FraudService) checkPattern(recent []models.Referral, email, phone string) error {
	// Same email local-part repeated across referrals, e.g. john+1@, john+2@.
	prefixCounts := map[string]int{localPart(email): 1}
	for _, r := range recent {
		prefixCounts[localPart(r.ReferredEmail)]++
	}
	for _, count := range prefixCounts {
		if count > maxSharedEmailPrefix {
			return ErrSuspiciousPattern
		}
	}

	// Numerically sequential phone numbers.
	phones := make([]int64, 0, len(recent)+1)
	if n, ok := phoneToNumber(phone); ok {
		phones = append(phones, n)
	}
	for _, r := range recent {
		if n, ok := phoneToNumber(r.ReferredPhone); ok {
			phones = append(phones, n)
		}
	}
	for i := 0; i < len(phones); i++ {
		for j := i + 1; j < len(phones); j++ {
			diff := phones[i] - phones[j]
			if diff == 1 || diff == -1 {
				return ErrSuspiciousPattern
			}
		}
	}

	return nil
}

func (s *FraudService) checkNetwork(affiliateID uuid.UUID, ip string) error {
	if ip == "" {
		return nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	if ipInAny(parsed, blockedNetworks) {
		return ErrDisallowedNetwork
	}

	if !ipInAny(parsed, domesticNetworks) {
		logrus.WithFields(logrus.Fields{
			"affiliate_id": affiliateID,
			"ip":           ip,
		}).Warn("Referral from foreign IP")
	}

	return nil
}

func localPart(email string) string {
	part := email
	if idx := strings.Index(part, "@"); idx >= 0 {
		part = part[:idx]
	}
	// Plus tags alias the same mailbox.
	if idx := strings.Index(part, "+"); idx >= 0 {
		part = part[:idx]
	}
	return strings.ToLower(part)
}

func phoneToNumber(phone string) (int64, bool) {
	digits := utils.NormalizePhone(phone)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
