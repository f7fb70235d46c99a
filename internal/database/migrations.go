package database

import (
	"database/sql"
	"log"
)

// RunMigrations ejecuta las migraciones necesarias para actualizar el esquema de la base de datos
func RunMigrations(db *sql.DB) error {
	log.Println("Ejecutando migraciones de la base de datos...")

	// Migración para añadir los campos de recompra a operaciones antiguas
	addBuyBackColumnsSQL := `
	ALTER TABLE portfolio_transactions ADD COLUMN is_recovered INTEGER DEFAULT 0;
	ALTER TABLE portfolio_transactions ADD COLUMN buy_back_id TEXT;
	`

	_, err := db.Exec(addBuyBackColumnsSQL)
	if err != nil {
		log.Printf("Error al añadir columnas is_recovered y buy_back_id: %v", err)
		// No retornamos error porque SQLite puede dar error si la columna ya existe
		// y queremos que la migración continúe
	} else {
		log.Println("Columnas is_recovered y buy_back_id añadidas correctamente")
	}

	// Migración para añadir la comisión a operaciones antiguas
	addFeeColumnSQL := `ALTER TABLE portfolio_transactions ADD COLUMN fee REAL DEFAULT 0;`

	_, err = db.Exec(addFeeColumnSQL)
	if err != nil {
		log.Printf("Error al añadir columna fee: %v", err)
	} else {
		log.Println("Columna fee añadida correctamente")
	}

	return nil
}
