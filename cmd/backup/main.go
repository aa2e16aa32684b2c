package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"palabritas/internal/backup"
	"palabritas/internal/config"
	"palabritas/internal/store"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportDSN := exportCmd.String("dsn", "", "Snapshot database DSN (default: from BACKUP_DSN)")
	importDSN := importCmd.String("dsn", "", "Snapshot database DSN (default: from BACKUP_DSN)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	st, err := store.NewFirestore(ctx, cfg.GoogleCloudProject, cfg.FirestoreCredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer st.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		svc := openService(st, cfg, *exportDSN)
		defer svc.Close()

		log.Printf("Exporting documents to %s snapshot", cfg.BackupDriver)
		if _, err := svc.Export(ctx); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Println("Export complete!")

	case "import":
		importCmd.Parse(os.Args[2:])
		svc := openService(st, cfg, *importDSN)
		defer svc.Close()

		log.Printf("Importing documents from %s snapshot", cfg.BackupDriver)
		if _, err := svc.Import(ctx); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Println("Import complete!")

	default:
		printUsage()
		os.Exit(1)
	}
}

func openService(st store.Store, cfg *config.Config, dsn string) *backup.Service {
	if dsn == "" {
		dsn = cfg.BackupDSN
	}
	svc, err := backup.NewService(st, cfg.BackupDriver, dsn)
	if err != nil {
		log.Fatalf("Failed to open snapshot database: %v", err)
	}
	return svc
}

func printUsage() {
	fmt.Println("Palabritas Document Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Snapshot the document store into a SQL database")
	fmt.Println("  backup import [options]    Merge a SQL snapshot back into the document store")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -dsn <dsn>    Snapshot database DSN (default: BACKUP_DSN)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  BACKUP_DRIVER             sqlite3, postgres, or mysql (default: sqlite3)")
	fmt.Println("  BACKUP_DSN                Snapshot database DSN")
	fmt.Println("  GOOGLE_CLOUD_PROJECT      GCP project holding the document store")
	fmt.Println("  FIRESTORE_CREDENTIALS_FILE  Service account key file (optional)")
}
