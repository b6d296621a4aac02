package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamIndexKey returns the cache key for the published exam listing
func (r *CacheKeyStruct) ExamIndexKey() string {
	return "exams:index"
}

// ExamRecordKey returns the cache key for an exam's full record (questions included)
func (r *CacheKeyStruct) ExamRecordKey(examID string) string {
	return fmt.Sprintf("exam:%s:record", examID)
}

var CacheKey = NewCacheKeyStruct()
