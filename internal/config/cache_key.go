package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey returns the denylist key for a token id (jti).
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// RevokedSessionKey returns the denylist key for a login session (sid).
func (r *CacheKeyStruct) RevokedSessionKey(sid string) string {
	return fmt.Sprintf("auth:revoked-session:%s", sid)
}

// NotificationChannel returns the Redis PubSub channel for one recipient.
func (r *CacheKeyStruct) NotificationChannel(role string, recipientID uuid.UUID) string {
	return fmt.Sprintf("notify:%s:%s", role, recipientID)
}

// PublicStatsKey returns the cache key for the public statistics payload.
func (r *CacheKeyStruct) PublicStatsKey() string {
	return "public:stats"
}

// InstitutionReportKey returns the cache key for an institution report.
func (r *CacheKeyStruct) InstitutionReportKey(institutionID uuid.UUID) string {
	return fmt.Sprintf("institution:%s:report", institutionID)
}

var CacheKey = NewCacheKeyStruct()
