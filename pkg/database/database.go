package database

import (
	"database/sql"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/post-discovery/config"
	"github.com/d60-Lab/post-discovery/internal/model"
	"github.com/d60-Lab/post-discovery/internal/rank"
)

// RankDriverName 注册了 rank_key UDF 的 sqlite 驱动名
const RankDriverName = "sqlite3_rank"

func init() {
	sql.Register(RankDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("rank_key", func(seed, id string) int64 {
				return int64(rank.Key(seed, id))
			}, true)
		},
	})
}

// pgRankKeyFn 与 rank.Key 完全一致的 FNV-1a 32 实现，供 ORDER BY 使用。
// 两边定义必须同步修改，否则 SQL 排序与内存洗牌不再可复现。
const pgRankKeyFn = `
CREATE OR REPLACE FUNCTION rank_key(seed text, id text) RETURNS bigint AS $$
DECLARE
    h bigint := 2166136261;
    s bytea := convert_to(seed || id, 'UTF8');
    i int;
BEGIN
    FOR i IN 0 .. octet_length(s) - 1 LOOP
        h := ((h # get_byte(s, i)) * 16777619) % 4294967296;
    END LOOP;
    RETURN h;
END $$ LANGUAGE plpgsql IMMUTABLE;
`

// InitDB 按配置打开数据库，迁移 posts 表并安装 rank_key
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dial = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		dial = sqlite.New(sqlite.Config{DriverName: RankDriverName, DSN: cfg.Database.DSN})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// :memory: 场景下多连接会各自持有独立库，收敛到单连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.Post{}); err != nil {
		return nil, fmt.Errorf("migrate posts: %w", err)
	}

	if cfg.Database.Driver == "postgres" {
		if err := db.Exec(pgRankKeyFn).Error; err != nil {
			return nil, fmt.Errorf("install rank_key: %w", err)
		}
	}
	return db, nil
}
