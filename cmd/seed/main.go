package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/config"
	"github.com/fieldops-hvac/planning/backend/internal/migrate"
	"github.com/fieldops-hvac/planning/backend/internal/planning"
	"github.com/fieldops-hvac/planning/backend/internal/repository"
	"github.com/fieldops-hvac/planning/backend/internal/seed"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "time/tzdata"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "数据库迁移与测试数据工具",
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newUsersCmd())
	root.AddCommand(newTechniciansCmd())
	root.AddCommand(newMissionsCmd())
	root.AddCommand(newImportCmd())

	return root
}

// openDB 读取配置并连接数据库，调用方负责关闭连接池
func openDB() (*config.Config, *sql.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("无法创建数据库连接池: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	return cfg, dbpool, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dbpool, err := openDB()
			if err != nil {
				return err
			}
			defer dbpool.Close()

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.TransactionTimeout)*time.Second)
			defer cancel()

			if err := migrate.Up(ctx, dbpool); err != nil {
				return err
			}
			slog.Info("数据库迁移完成")
			return nil
		},
	}
}

func newUsersCmd() *cobra.Command {
	var n int

	c := &cobra.Command{
		Use:   "users",
		Short: "插入随机用户",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("请输入合法的用户数量")
			}

			cfg, dbpool, err := openDB()
			if err != nil {
				return err
			}
			defer dbpool.Close()

			repo := repository.NewRepository(cfg, dbpool)
			cnt := seed.SeedUsers(repo, n, cfg.Seed.User.Password, cfg.Email.UserDomain)
			slog.Info("插入用户成功", slog.Int("count", cnt))
			return nil
		},
	}

	c.Flags().IntVarP(&n, "count", "n", 5, "要插入的用户数量")
	return c
}

func newTechniciansCmd() *cobra.Command {
	var n int

	c := &cobra.Command{
		Use:   "technicians",
		Short: "插入随机技术员",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("请输入合法的技术员数量")
			}

			cfg, dbpool, err := openDB()
			if err != nil {
				return err
			}
			defer dbpool.Close()

			repo := repository.NewRepository(cfg, dbpool)
			cnt := seed.SeedTechnicians(repo, n, cfg.Email.UserDomain)
			slog.Info("插入技术员成功", slog.Int("count", cnt))
			return nil
		},
	}

	c.Flags().IntVarP(&n, "count", "n", 5, "要插入的技术员数量")
	return c
}

func newMissionsCmd() *cobra.Command {
	var n int
	var week string

	c := &cobra.Command{
		Use:   "missions",
		Short: "在指定的周内插入随机任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("请输入合法的任务数量")
			}

			cfg, dbpool, err := openDB()
			if err != nil {
				return err
			}
			defer dbpool.Close()

			loc, err := time.LoadLocation(cfg.Planning.Timezone)
			if err != nil {
				return err
			}

			date := time.Now().In(loc)
			if week != "" {
				if date, err = time.ParseInLocation("2006-01-02", week, loc); err != nil {
					return fmt.Errorf("日期格式错误，应为 YYYY-MM-DD: %w", err)
				}
			}

			repo := repository.NewRepository(cfg, dbpool)
			cnt, err := seed.SeedMissions(repo, planning.WeekStart(date, loc), n)
			if err != nil {
				return err
			}
			slog.Info("插入任务成功", slog.Int("count", cnt))
			return nil
		},
	}

	c.Flags().IntVarP(&n, "count", "n", 20, "要插入的任务数量")
	c.Flags().StringVar(&week, "week", "", "任务所在周中的任意一天 (YYYY-MM-DD)，默认为本周")
	return c
}

func newImportCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "import",
		Short: "从 CSV 文件导入任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dbpool, err := openDB()
			if err != nil {
				return err
			}
			defer dbpool.Close()

			loc, err := time.LoadLocation(cfg.Planning.Timezone)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			repo := repository.NewRepository(cfg, dbpool)
			cnt, err := seed.ImportMissionsCSV(repo, f, loc)
			if err != nil {
				return err
			}
			slog.Info("导入任务完成", slog.Int("count", cnt))
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "CSV 文件路径")
	_ = c.MarkFlagRequired("file")
	return c
}
