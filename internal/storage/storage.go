// Package storage defines the persistence interface for topics, lemmas and words.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/lexicon/internal/models"
)

// ErrNotFound is returned when a topic does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines topic, lemma and word persistence operations.
// Deleting a topic does not cascade; callers remove words and lemmas first.
type Storage interface {
	// Topic operations
	CreateTopic(ctx context.Context, topic *models.Topic) error
	GetTopic(ctx context.Context, filename string) (*models.Topic, error)
	GetFingerprint(ctx context.Context, filename string) (string, bool, error)
	DeleteTopic(ctx context.Context, filename string) (bool, error)
	ListTopicFilenames(ctx context.Context) ([]string, error)
	ListIndexTopics(ctx context.Context) ([]*models.Topic, error)
	ListPublicationTopics(ctx context.Context, publication string) ([]*models.Topic, error)

	// Lemma operations
	BatchCreateLemmas(ctx context.Context, lemmas []*models.Lemma) error
	GetLemmasByTopic(ctx context.Context, filename string) ([]*models.Lemma, error)
	DeleteLemmasByTopic(ctx context.Context, filename string) error
	ForEachLemma(ctx context.Context, fn func(*models.Lemma) error) error

	// Word operations
	BatchCreateWords(ctx context.Context, words []*models.WordEntry) error
	DeleteWordsByTopic(ctx context.Context, filename string) error
	FindLemmasByWord(ctx context.Context, word string) ([]*models.LemmaHit, error)

	// Stats
	CountTopics(ctx context.Context) (int64, error)
	CountLemmas(ctx context.Context) (int64, error)
	CountWords(ctx context.Context) (int64, error)

	Close() error
}
