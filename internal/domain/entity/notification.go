package entity

import "time"

// Notification aviso para un usuario (creado fuera de la transacción principal).
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Meta      map[string]string
	CreatedAt time.Time
}
