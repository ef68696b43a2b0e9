package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.DocumentNumberer = (*Numberer)(nil)

// Numberer consecutivos de documentos con INCR atómico por (tenant, tipo).
// Útil cuando varias réplicas del API comparten la numeración sin pasar por la BD.
type Numberer struct {
	rdb    goredis.Cmdable
	prefix string
}

func NewNumberer(rdb goredis.Cmdable) *Numberer {
	return &Numberer{rdb: rdb, prefix: "docnum"}
}

func (n *Numberer) key(tenantID string, kind entity.DocumentKind) string {
	return fmt.Sprintf("%s:%s:%s", n.prefix, tenantID, kind)
}

func (n *Numberer) Next(ctx context.Context, tenantID string, kind entity.DocumentKind) (string, error) {
	v, err := n.rdb.Incr(ctx, n.key(tenantID, kind)).Result()
	if err != nil {
		return "", fmt.Errorf("redis incr %s: %w", kind, err)
	}
	return kind.Number(v), nil
}
