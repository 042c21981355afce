package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"finmec/internal/config"
	"finmec/internal/db"

	"github.com/jmoiron/sqlx"
)

const downMarker = "-- +migrate Down"

func main() {
	dir := flag.String("dir", "migrations", "directory holding the *.sql files")
	down := flag.Bool("down", false, "roll back the most recently applied migration")
	flag.Parse()

	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: 2})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`); err != nil {
		log.Fatalf("failed to ensure schema_migrations: %v", err)
	}

	if *down {
		if err := rollback(database, *dir); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		return
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.Fatalf("failed to read migrations: %v", err)
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		filename := filepath.Base(file)
		var exists bool
		if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.Fatalf("failed to read migration state: %v", err)
		}
		if exists {
			continue
		}
		up, _, err := readSections(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", filename, err)
		}
		err = inTx(database, func(tx *sqlx.Tx) error {
			if err := execAll(tx, up); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename)
			return err
		})
		if err != nil {
			log.Fatalf("failed to apply %s: %v", filename, err)
		}
		applied++
		fmt.Printf("applied %s\n", filename)
	}
	if applied == 0 {
		fmt.Println("schema is up to date")
	}
}

func rollback(database *sqlx.DB, dir string) error {
	var filename string
	err := database.Get(&filename, `SELECT filename FROM schema_migrations ORDER BY filename DESC LIMIT 1`)
	if err != nil {
		return fmt.Errorf("no applied migration found: %w", err)
	}
	_, downSQL, err := readSections(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	if strings.TrimSpace(downSQL) == "" {
		return fmt.Errorf("%s has no down section", filename)
	}
	err = inTx(database, func(tx *sqlx.Tx) error {
		if err := execAll(tx, downSQL); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM schema_migrations WHERE filename = $1`, filename)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("rolled back %s\n", filename)
	return nil
}

func inTx(database *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := database.Beginx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func readSections(path string) (string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	up, down, _ := strings.Cut(string(content), downMarker)
	return up, down, nil
}

func execAll(tx *sqlx.Tx, sqlText string) error {
	for _, stmt := range splitSQL(sqlText) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w\n%s", err, strings.TrimSpace(stmt))
		}
	}
	return nil
}

// splitSQL breaks a file into statements at lines ending with ";". Comment
// lines are dropped. Statements must not embed ";" mid-line.
func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
