package models

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Column Mismatch Report Usage:

Lists database columns that no field of the corresponding Go model maps to.
Run it with:

	portfolio column-report

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: projects ---
Found 1 columns not accounted for in model:
  - github_link

--- Table: project_tags ---
All columns are accounted for in the model.

=== SUMMARY ===
Total mismatched columns across all tables: 1
*/

// GenerateModels migrates every model and writes typed gorm/gen query code to outPath.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	db = db.Session(&gorm.Session{
		Logger:                 newLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(AllModels()...)

	fmt.Println("Migrating models...")
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}

	if _, err := GenerateColumnMismatchReport(db, os.Stdout); err != nil {
		return err
	}

	g.Execute()
	fmt.Println("Model generation complete!")
	return nil
}

// GenerateColumnMismatchReport writes the report to w and returns the number of
// unmapped columns across all tables.
func GenerateColumnMismatchReport(db *gorm.DB, w io.Writer) (int, error) {
	fmt.Fprintln(w, "=== COLUMN MISMATCH REPORT ===")

	totalMismatches := 0
	for _, model := range AllModels() {
		tableName, modelFields, err := modelColumns(db, model)
		if err != nil {
			return totalMismatches, err
		}
		fmt.Fprintf(w, "\n--- Table: %s ---\n", tableName)

		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			if strings.Contains(err.Error(), "does not exist") {
				fmt.Fprintln(w, "Table does not exist yet (will be created during migration)")
			} else {
				fmt.Fprintf(w, "Error getting columns for table %s: %v\n", tableName, err)
			}
			continue
		}

		mismatches := findColumnMismatches(dbColumns, modelFields)
		if len(mismatches) > 0 {
			fmt.Fprintf(w, "Found %d columns not accounted for in model:\n", len(mismatches))
			for _, col := range mismatches {
				fmt.Fprintf(w, "  - %s\n", col)
			}
			totalMismatches += len(mismatches)
		} else {
			fmt.Fprintln(w, "All columns are accounted for in the model.")
		}
	}

	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Total mismatched columns across all tables: %d\n", totalMismatches)
	return totalMismatches, nil
}

// modelColumns resolves the table and column names gorm uses for model.
func modelColumns(db *gorm.DB, model interface{}) (string, []string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", nil, fmt.Errorf("error parsing model %T: %w", model, err)
	}
	columns := append([]string(nil), stmt.Schema.DBNames...)
	sort.Strings(columns)
	return stmt.Schema.Table, columns, nil
}

// getTableColumns retrieves column names from a database table
func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	var columns []string
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`

	err := db.Raw(query, tableName).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}

	if len(columns) == 0 {
		var tableExists bool
		tableQuery := `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = CURRENT_SCHEMA()
				AND table_name = ?
			)
		`
		if err := db.Raw(tableQuery, tableName).Scan(&tableExists).Error; err != nil {
			return nil, fmt.Errorf("error checking if table %s exists: %w", tableName, err)
		}

		if !tableExists {
			return nil, fmt.Errorf("table %s does not exist", tableName)
		}
	}

	return columns, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool)
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}

	return mismatches
}
