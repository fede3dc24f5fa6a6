package store

import (
	"encoding/json"
	"time"

	"github.com/haojie06/visualgen-http/internal/model"
)

// LibraryEntry caches a generation the user saved. The backend stays the
// owner of the record, a row is only a mutable copy.
type LibraryEntry struct {
	GenerationId string `gorm:"primaryKey;size:64"`
	ProductId    string `gorm:"index;size:64"`
	CollectionId string `gorm:"size:64"`
	Status       string `gorm:"size:20"`
	Payload      string `gorm:"type:text"`
	CreatedAt    time.Time
	SavedAt      time.Time
}

func (s *Store) SaveGeneration(generation *model.Generation) error {
	payload, err := json.Marshal(generation)
	if err != nil {
		return err
	}
	entry := LibraryEntry{
		GenerationId: generation.Id,
		ProductId:    generation.ProductId,
		CollectionId: generation.CollectionId,
		Status:       string(generation.Status),
		Payload:      string(payload),
		CreatedAt:    generation.CreatedAt,
		SavedAt:      time.Now(),
	}
	return s.db.Save(&entry).Error
}

func (s *Store) LibraryGeneration(id string) (*model.Generation, error) {
	var entry LibraryEntry
	if err := s.db.First(&entry, "generation_id = ?", id).Error; err != nil {
		return nil, err
	}
	return decodeEntry(entry)
}

// Library lists saved generations, most recent first. An empty productId lists all.
func (s *Store) Library(productId string, limit int) ([]model.Generation, error) {
	query := s.db.Order("saved_at DESC")
	if productId != "" {
		query = query.Where("product_id = ?", productId)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []LibraryEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	generations := make([]model.Generation, 0, len(entries))
	for _, entry := range entries {
		generation, err := decodeEntry(entry)
		if err != nil {
			return nil, err
		}
		generations = append(generations, *generation)
	}
	return generations, nil
}

func (s *Store) RemoveGeneration(id string) error {
	return s.db.Delete(&LibraryEntry{}, "generation_id = ?", id).Error
}

func decodeEntry(entry LibraryEntry) (*model.Generation, error) {
	var generation model.Generation
	if err := json.Unmarshal([]byte(entry.Payload), &generation); err != nil {
		return nil, err
	}
	return &generation, nil
}
