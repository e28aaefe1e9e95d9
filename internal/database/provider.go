package database

import (
	"fmt"
	"sync"
)

// HNSWRebuilder is an interface for repositories that support HNSW index rebuilding
type HNSWRebuilder interface {
	// HNSWCount returns the number of items in the HNSW index
	HNSWCount() int
	// IsHNSWEnabled returns whether HNSW is enabled
	IsHNSWEnabled() bool
	// SaveHNSWIndex saves the current index to disk (if path configured)
	SaveHNSWIndex() error
}

var (
	registryMu     sync.RWMutex
	faceWriter     func() FaceWriter
	profileWriter  func() ProfileWriter
	faceHNSW       HNSWRebuilder
	backendEnabled bool
)

// RegisterFaceBackend registers the face collection repository constructor.
// This is called by the storage packages to avoid import cycles.
func RegisterFaceBackend(faces func() FaceWriter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	faceWriter = faces
	backendEnabled = true
}

// RegisterProfileBackend registers the profile repository constructor.
// The last registration wins, so a MariaDB store can replace the PostgreSQL one.
func RegisterProfileBackend(profiles func() ProfileWriter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	profileWriter = profiles
}

// RegisterFaceHNSWRebuilder registers the HNSW rebuilder for the face repository.
func RegisterFaceHNSWRebuilder(rebuilder HNSWRebuilder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	faceHNSW = rebuilder
}

// GetFaceHNSWRebuilder returns the registered face HNSW rebuilder, or nil if not registered.
func GetFaceHNSWRebuilder() HNSWRebuilder {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return faceHNSW
}

// IsInitialized returns whether a face backend has been registered.
func IsInitialized() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return backendEnabled
}

// GetFaceWriter returns the registered FaceWriter
func GetFaceWriter() (FaceWriter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if !backendEnabled || faceWriter == nil {
		return nil, fmt.Errorf("face backend not initialized: DATABASE_URL is required")
	}
	return faceWriter(), nil
}

// GetProfileWriter returns the registered ProfileWriter
func GetProfileWriter() (ProfileWriter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if profileWriter == nil {
		return nil, fmt.Errorf("profile backend not initialized")
	}
	return profileWriter(), nil
}

// ResetRegistry clears all registrations. Used by tests.
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	faceWriter = nil
	profileWriter = nil
	faceHNSW = nil
	backendEnabled = false
}
