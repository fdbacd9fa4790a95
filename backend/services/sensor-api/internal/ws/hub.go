package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// Hub fans stored readings out to live subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	logger      *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		logger:      logger,
	}
}

// Subscriber receives encoded readings on C. An empty equipment id matches every station.
type Subscriber struct {
	equipmentID string
	send        chan []byte
	once        sync.Once
}

// C returns the delivery channel; it is closed on Unsubscribe.
func (s *Subscriber) C() <-chan []byte {
	return s.send
}

// Subscribe registers a subscriber with a buffer of size messages.
func (h *Hub) Subscribe(equipmentID string, size int) *Subscriber {
	if size <= 0 {
		size = 16
	}
	sub := &Subscriber{equipmentID: equipmentID, send: make(chan []byte, size)}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	sub.once.Do(func() { close(sub.send) })
}

// Len reports the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish delivers reading to matching subscribers without blocking; full buffers drop it.
func (h *Hub) Publish(reading models.Reading) {
	msg, err := json.Marshal(models.Reading{
		EquipmentID: reading.EquipmentID,
		Timestamp:   reading.Timestamp,
		Value:       reading.Value,
	})
	if err != nil {
		h.logger.Warn("failed to encode reading for stream", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		if sub.equipmentID != "" && sub.equipmentID != reading.EquipmentID {
			continue
		}
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("dropping stream message, buffer full", zap.String("equipment_id", reading.EquipmentID))
		}
	}
}
