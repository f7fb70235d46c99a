package models

import (
	"fmt"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // El "-" evita que se serialice en JSON
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateID - Función auxiliar para generar IDs únicos
func GenerateID() string {
	// Usamos el timestamp en nanosegundos como ID único
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
