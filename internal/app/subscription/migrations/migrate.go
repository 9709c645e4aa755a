// Package migrations applies the Spanner schema under migrations/.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	admin "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instanceadmin "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Target names the database to migrate. EmulatorHost is optional.
type Target struct {
	ProjectID    string
	InstanceID   string
	DatabaseID   string
	EmulatorHost string
	// Dir overrides the migrations directory; empty means <module root>/migrations.
	Dir string
}

func (t Target) instanceName() string {
	return fmt.Sprintf("projects/%s/instances/%s", t.ProjectID, t.InstanceID)
}

func (t Target) databasePath() string {
	return fmt.Sprintf("%s/databases/%s", t.instanceName(), t.DatabaseID)
}

// ClientOptions points admin and data clients at the emulator when one is set.
func ClientOptions(emulatorHost string) []option.ClientOption {
	if emulatorHost == "" {
		return nil
	}
	// gRPC wants host:port without a scheme
	endpoint := strings.TrimPrefix(strings.TrimPrefix(emulatorHost, "http://"), "https://")
	return []option.ClientOption{option.WithEndpoint(endpoint)}
}

// RunMigrations creates the instance and database when missing and applies
// every statement found in the migration files.
func RunMigrations(ctx context.Context, target Target, log *zap.Logger) error {
	log = log.With(zap.String("database", target.databasePath()))

	dir := target.Dir
	if dir == "" {
		var err error
		if dir, err = FindMigrationsDir(); err != nil {
			return fmt.Errorf("failed to find migrations directory: %w", err)
		}
	}
	statements, err := LoadStatements(dir, log)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		log.Info("no DDL statements found", zap.String("dir", dir))
		return nil
	}

	opts := ClientOptions(target.EmulatorHost)
	if target.EmulatorHost != "" {
		log.Info("using spanner emulator", zap.String("host", target.EmulatorHost))
	}

	if err := ensureInstance(ctx, target, opts, log); err != nil {
		return err
	}

	adminClient, err := admin.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create database admin client: %w", err)
	}
	defer adminClient.Close()

	return applyStatements(ctx, adminClient, target, statements, log)
}

func ensureInstance(ctx context.Context, target Target, opts []option.ClientOption, log *zap.Logger) error {
	client, err := instanceadmin.NewInstanceAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer client.Close()

	_, err = client.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: target.instanceName()})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to check instance existence: %w", err)
	}

	log.Info("creating instance", zap.String("instance", target.InstanceID))
	op, err := client.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     "projects/" + target.ProjectID,
		InstanceId: target.InstanceID,
		Instance: &instancepb.Instance{
			DisplayName: target.InstanceID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("instance creation failed: %w", err)
	}
	return nil
}

// applyStatements creates the database with the schema, or updates the DDL of
// an existing one. Statements use IF NOT EXISTS so re-running is harmless.
func applyStatements(ctx context.Context, client *admin.DatabaseAdminClient, target Target, statements []string, log *zap.Logger) error {
	_, err := client.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: target.databasePath()})
	switch {
	case status.Code(err) == codes.NotFound:
		log.Info("creating database", zap.Int("statements", len(statements)))
		op, err := client.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
			Parent:          target.instanceName(),
			CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", target.DatabaseID),
			ExtraStatements: statements,
		})
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		if _, err := op.Wait(ctx); err != nil {
			return fmt.Errorf("database creation failed: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check database existence: %w", err)
	default:
		log.Info("updating schema", zap.Int("statements", len(statements)))
		op, err := client.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
			Database:   target.databasePath(),
			Statements: statements,
		})
		if err != nil {
			return fmt.Errorf("failed to start migrations: %w", err)
		}
		if err := op.Wait(ctx); err != nil {
			return fmt.Errorf("failed to complete migrations: %w", err)
		}
	}

	log.Info("migrations applied", zap.Int("statements", len(statements)))
	return nil
}

// FindMigrationsDir walks up from the working directory to the module root
// and returns its migrations directory.
func FindMigrationsDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			path := filepath.Join(dir, "migrations")
			if _, err := os.Stat(path); err != nil {
				return "", fmt.Errorf("migrations directory not found at %s", path)
			}
			return path, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return "", errors.New("could not find module root from " + wd)
}

// LoadStatements reads every *.sql file in dir, in name order, and returns
// their DDL statements.
func LoadStatements(dir string, log *zap.Logger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	var statements []string
	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		parsed := ParseDDLStatements(string(sql))
		log.Debug("read migration",
			zap.String("file", filepath.Base(file)),
			zap.Int("statements", len(parsed)),
		)
		statements = append(statements, parsed...)
	}
	return statements, nil
}

// ParseDDLStatements splits a SQL file on trailing semicolons and drops
// "--" comments.
func ParseDDLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(current.String()), ";"))
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(sql, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(trimmed)
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return statements
}
