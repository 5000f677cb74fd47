package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybePrettyJSON(cfg))
		fmt.Println("============")
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := membership.NewRepositoryManager(db)
	repo.MustValidate()

	auther := membership.NewAuthenticator(repo.Accounts(), cfg)

	if err := seedAccount(ctx, repo, cfg); err != nil {
		log.Fatal(err)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "membershipd",
		}))
	})

	protected := membership.TokenGuard(cfg, auther.TokenService(), membership.RenderError)

	controller := membership.NewUserController(
		membership.WithControllerAuthenticator(auther),
		membership.WithControllerDebug(cfg.Debug),
	)
	controller.ContextKey = cfg.GetContextKey()
	controller.PhoneRegion = cfg.PhoneRegion

	membership.RegisterUserRoutes(srv.Router(), controller, protected)

	srv.Serve(cfg.Address)

	WaitExitSignal()
}

// seedAccount provisions the configured bootstrap account. Deterministic IDs
// keep repeated runs from growing the table; an existing username is not an
// error.
func seedAccount(ctx context.Context, repo membership.RepositoryManager, cfg *AppConfig) error {
	if cfg.SeedUsername == "" || cfg.SeedPassword == "" {
		return nil
	}

	if _, err := repo.Accounts().FindByUsername(ctx, cfg.SeedUsername); err == nil {
		return nil
	}

	handler := membership.NewRegisterAccountHandler(repo)
	return handler.Execute(ctx, membership.RegisterAccountMessage{
		Username:  cfg.SeedUsername,
		Password:  cfg.SeedPassword,
		UseHashid: true,
	})
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	fsys, err := fs.Sub(membership.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(fsys); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
