package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/dropfeed/pkg/dropfeed"
	"github.com/tendant/dropfeed/pkg/dropfeed/config"
	repopg "github.com/tendant/dropfeed/pkg/dropfeed/repo/postgres"
)

const usage = `Dropfeed Admin CLI

Direct database maintenance for the dropfeed store.

USAGE:
  admin <command> [options]

COMMANDS:
  migrate    Create the posts and airdrops tables if missing
  posts      List every post, drafts included
  airdrops   List every airdrop, drafts included
  clear      Delete airdrops (all, or one category). Requires --yes

ENVIRONMENT VARIABLES:
  DATABASE_URL      PostgreSQL connection string (required)
  DB_SCHEMA         PostgreSQL schema name (optional)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin migrate
  admin posts --json
  admin airdrops --category=today
  admin clear --category=upcoming --yes
  admin clear --yes

OPTIONS:
  --category=<today|upcoming>  Restrict airdrops/clear to one category
  --json                       Output as JSON
  --yes                        Confirm a destructive clear
`

type options struct {
	category *dropfeed.Category
	useJSON  bool
	confirm  bool
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" || command == "--help" || command == "-h" {
		fmt.Println(usage)
		os.Exit(0)
	}

	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()

	pool, err := config.NewPool(ctx, os.Getenv("DATABASE_URL"), os.Getenv("DB_SCHEMA"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := repopg.NewWithPool(pool)

	if command == "migrate" {
		handleMigrate(ctx, repo)
		return
	}

	svc, err := dropfeed.New(
		dropfeed.WithPostRepository(repo),
		dropfeed.WithAirdropRepository(repo),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch command {
	case "posts":
		handlePosts(ctx, svc, opts)
	case "airdrops":
		handleAirdrops(ctx, svc, opts)
	case "clear":
		handleClear(ctx, svc, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	for _, arg := range args {
		key, value := parseFlag(arg)
		switch key {
		case "json":
			opts.useJSON = true
		case "yes":
			opts.confirm = true
		case "category":
			c, err := dropfeed.ParseCategory(value)
			if err != nil {
				return opts, fmt.Errorf("invalid --category %q: use today or upcoming", value)
			}
			opts.category = &c
		case "":
			return opts, fmt.Errorf("unexpected argument: %s", arg)
		default:
			return opts, fmt.Errorf("unknown option: --%s", key)
		}
	}
	return opts, nil
}

func parseFlag(arg string) (string, string) {
	if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
		return "", ""
	}
	key, value, found := strings.Cut(arg[2:], "=")
	if !found {
		return key, "true"
	}
	return key, value
}

func handleMigrate(ctx context.Context, repo *repopg.Repository) {
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	fmt.Println("Schema is up to date")
}

func handlePosts(ctx context.Context, svc dropfeed.Service, opts options) {
	posts, err := svc.ListAllPosts(ctx)
	if err != nil {
		log.Fatalf("Failed to list posts: %v", err)
	}

	if opts.useJSON {
		printJSON(posts)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tPUBLISHED\tUPDATED\n")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.ID.String()[:8]+"...",
			truncate(p.Title, 40),
			formatTime(p.PublishedAt),
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d\n", len(posts))
}

func handleAirdrops(ctx context.Context, svc dropfeed.Service, opts options) {
	items, err := svc.ListAllAirdrops(ctx, opts.category)
	if err != nil {
		log.Fatalf("Failed to list airdrops: %v", err)
	}

	if opts.useJSON {
		printJSON(items)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tCATEGORY\tSORT\tNAME\tBADGE\tPUBLISHED\n")
	for _, a := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			a.ID.String()[:8]+"...",
			a.Category,
			a.Sort,
			truncate(a.Name, 30),
			valueOr(a.Badge, "-"),
			formatTime(a.PublishedAt),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d\n", len(items))
}

func handleClear(ctx context.Context, svc dropfeed.Service, opts options) {
	scope := "all airdrops"
	req := dropfeed.ClearAirdropsRequest{}
	if opts.category != nil {
		c := string(*opts.category)
		req.Category = &c
		scope = c + " airdrops"
	}

	if !opts.confirm {
		fmt.Printf("Refusing to delete %s without --yes\n", scope)
		os.Exit(1)
	}

	if err := svc.ClearAirdrops(ctx, req); err != nil {
		log.Fatalf("Failed to clear airdrops: %v", err)
	}
	fmt.Printf("Deleted %s\n", scope)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode JSON: %v", err)
	}
	fmt.Println(string(data))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "draft"
	}
	return t.Format(time.RFC3339)
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
