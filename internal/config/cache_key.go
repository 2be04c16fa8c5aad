package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginSessionKey returns the cache key holding a user's active login JTI.
func (r *CacheKeyStruct) LoginSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// ExamSessionKey returns the cache key for a serialized exam session snapshot.
// One durable entry per session, overwritten on every checkpoint.
func (r *CacheKeyStruct) ExamSessionKey(sessionID string) string {
	return fmt.Sprintf("exam-session:%s", sessionID)
}

var CacheKey = NewCacheKeyStruct()
