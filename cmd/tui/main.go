// Command tui is the terminal front end. It skips the HTTP layer and calls
// the services directly, but every read still passes through the same
// visibility scoping and every write through the same authorization guard as
// the REST API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/config"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/database"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/redisdb"
)

type app struct {
	auth     *service.AuthService
	tokens   *token.Service
	articles *service.ArticleService
	scrapers *service.ScraperService
	presets  *service.PresetService

	caller *authz.Caller
	pair   *token.Pair
}

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}
	if _, err := database.BootstrapAdmin(ctx, db, cfg, uuid.NewString()); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	rdb, err := redisdb.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer rdb.Close()

	userRepo := repository.NewPgUserRepository(db)
	tokens := token.NewService(rdb, cfg.JWTKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	a := &app{
		auth:     service.NewAuthService(userRepo, tokens),
		tokens:   tokens,
		articles: service.NewArticleService(repository.NewPgArticleRepository(db), db),
		scrapers: service.NewScraperService(repository.NewPgScraperRepository(db)),
		presets:  service.NewPresetService(repository.NewPgPresetRepository(db)),
	}

	fmt.Println("webscrape-tui — type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := a.dispatch(ctx, scanner, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (a *app) dispatch(ctx context.Context, scanner *bufio.Scanner, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Println("commands: login <username>, logout, whoami, articles, scrapers [mine], tags, presets, quit")
		return nil
	case "login":
		if len(args) != 1 {
			return fmt.Errorf("usage: login <username>")
		}
		fmt.Print("password: ")
		if !scanner.Scan() {
			return fmt.Errorf("no password given")
		}
		return a.login(ctx, args[0], scanner.Text())
	case "logout":
		return a.logout(ctx)
	}

	if a.caller == nil {
		return fmt.Errorf("not logged in")
	}

	switch cmd {
	case "whoami":
		fmt.Printf("%s (%s)\n", a.caller.ID, a.caller.Role)
	case "articles":
		page, err := a.articles.List(ctx, *a.caller, model.FilterBundle{}, 20, 0)
		if err != nil {
			return err
		}
		fmt.Printf("%d article(s) visible\n", page.Total)
		for _, article := range page.Articles {
			fmt.Printf("  %s  %s\n", article.ID, article.Title)
		}
	case "scrapers":
		mine := len(args) > 0 && args[0] == "mine"
		page, err := a.scrapers.List(ctx, *a.caller, mine, 20, 0)
		if err != nil {
			return err
		}
		fmt.Printf("%d profile(s)\n", page.Total)
		for _, p := range page.Scrapers {
			marker := " "
			if p.IsPreinstalled {
				marker = "*"
			}
			fmt.Printf("  %s %s  %s\n", marker, p.ID, p.Name)
		}
	case "tags":
		tags, err := a.articles.ListTags(ctx, *a.caller)
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Println(" ", t.Slug)
		}
	case "presets":
		names, err := a.presets.List(ctx, *a.caller)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(" ", name)
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (a *app) login(ctx context.Context, username, password string) error {
	pair, err := a.auth.Login(ctx, service.LoginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	claims, err := a.tokens.VerifyAccess(ctx, pair.AccessToken)
	if err != nil {
		return err
	}
	a.pair = pair
	a.caller = &authz.Caller{ID: claims.UserID, Role: claims.Role}
	fmt.Println("logged in as", username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if a.pair == nil {
		return nil
	}
	if err := a.auth.Logout(ctx, a.pair.AccessToken, a.pair.RefreshToken); err != nil {
		return err
	}
	a.pair = nil
	a.caller = nil
	fmt.Println("logged out")
	return nil
}
