package treebank

import (
	"context"
	"fmt"
	"sync"

	"github.com/kuzudb/go-kuzu"
	"go.uber.org/zap"
)

// KuzuDatabase implements GraphDatabase on an embedded Kuzu database
type KuzuDatabase struct {
	db     *kuzu.Database
	conn   *kuzu.Connection
	mu     sync.Mutex
	logger *zap.Logger
}

// NewKuzuDatabase opens the database at databasePath, in memory for "" or ":memory:"
func NewKuzuDatabase(databasePath string, logger *zap.Logger) (*KuzuDatabase, error) {
	var db *kuzu.Database
	var err error

	if databasePath == ":memory:" || databasePath == "" {
		db, err = kuzu.OpenInMemoryDatabase(kuzu.DefaultSystemConfig())
	} else {
		db, err = kuzu.OpenDatabase(databasePath, kuzu.DefaultSystemConfig())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Kuzu database: %w", err)
	}

	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Kuzu connection: %w", err)
	}

	kuzuDB := &KuzuDatabase{
		db:     db,
		conn:   conn,
		logger: logger,
	}
	if err := kuzuDB.initializeSchema(); err != nil {
		kuzuDB.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize Kuzu schema: %w", err)
	}
	return kuzuDB, nil
}

func (db *KuzuDatabase) VerifyConnectivity(ctx context.Context) error {
	if _, err := db.ExecuteRead(ctx, "RETURN 1", nil); err != nil {
		return fmt.Errorf("failed to verify Kuzu connectivity: %w", err)
	}
	return nil
}

func (db *KuzuDatabase) Close(ctx context.Context) error {
	if db.conn != nil {
		db.conn.Close()
		db.conn = nil
	}
	if db.db != nil {
		db.db.Close()
		db.db = nil
	}
	return nil
}

func (db *KuzuDatabase) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.executeQuery(ctx, query, params, false)
}

func (db *KuzuDatabase) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.executeQuery(ctx, query, params, true)
}

func (db *KuzuDatabase) ExecuteReadSingle(ctx context.Context, query string, params map[string]any) (map[string]any, error) {
	records, err := db.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return single(records)
}

func (db *KuzuDatabase) executeQuery(ctx context.Context, query string, params map[string]any, isWrite bool) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	var result *kuzu.QueryResult
	var err error
	if len(params) > 0 {
		stmt, perr := db.conn.Prepare(query)
		if perr != nil {
			db.logger.Error("Failed to prepare Kuzu query",
				zap.String("query", query),
				zap.Bool("isWrite", isWrite),
				zap.Error(perr))
			return nil, fmt.Errorf("failed to prepare query: %w", perr)
		}
		defer stmt.Close()
		result, err = db.conn.Execute(stmt, params)
	} else {
		result, err = db.conn.Query(query)
	}
	if err != nil {
		db.logger.Error("Failed to execute Kuzu query",
			zap.String("query", query),
			zap.Bool("isWrite", isWrite),
			zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer result.Close()

	var records []map[string]any
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to get next result row: %w", err)
		}
		record, err := tuple.GetAsMap()
		if err != nil {
			return nil, fmt.Errorf("failed to convert tuple to map: %w", err)
		}
		converted := make(map[string]any, len(record))
		for key, value := range record {
			if node, ok := value.(kuzu.Node); ok {
				converted[key] = node.Properties
				continue
			}
			converted[key] = value
		}
		records = append(records, converted)
	}
	return records, nil
}

// initializeSchema creates the sentence, word and link tables
func (db *KuzuDatabase) initializeSchema() error {
	schemas := []string{
		`CREATE NODE TABLE IF NOT EXISTS Sentence (
			id STRING,
			runId STRING,
			idx INT64,
			text STRING,
			wordCount INT64,
			PRIMARY KEY (id)
		)`,
		`CREATE NODE TABLE IF NOT EXISTS Word (
			id STRING,
			sentenceId STRING,
			position INT64,
			form STRING,
			classId INT64,
			genId INT64,
			head INT64,
			via STRING,
			back STRING,
			PRIMARY KEY (id)
		)`,
		"CREATE REL TABLE IF NOT EXISTS HAS_WORD (FROM Sentence TO Word)",
		"CREATE REL TABLE IF NOT EXISTS LINK (FROM Word TO Word, connector STRING)",
	}
	for _, schema := range schemas {
		result, err := db.conn.Query(schema)
		if err != nil {
			db.logger.Error("Failed to create table", zap.String("schema", schema), zap.Error(err))
			return fmt.Errorf("failed to create table: %w", err)
		}
		result.Close()
	}
	db.logger.Debug("Initialized Kuzu treebank schema")
	return nil
}
