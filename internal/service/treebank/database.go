package treebank

import (
	"context"
	"fmt"
)

// GraphDatabase is the Cypher store behind a treebank
type GraphDatabase interface {
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	ExecuteReadSingle(ctx context.Context, query string, params map[string]any) (map[string]any, error)
}

func single(records []map[string]any) (map[string]any, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records returned")
	}
	if len(records) > 1 {
		return nil, fmt.Errorf("expected single record, got %d", len(records))
	}
	return records[0], nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", value)
	}
}

func toString(value any) string {
	s, _ := value.(string)
	return s
}
