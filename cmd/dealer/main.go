// Command dealer is a CLI client for the Carsawa dealer marketplace.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kigundalevi/carsawa/internal/cache"
	"github.com/kigundalevi/carsawa/internal/config"
	"github.com/kigundalevi/carsawa/internal/editor"
	"github.com/kigundalevi/carsawa/internal/errs"
	"github.com/kigundalevi/carsawa/internal/gateway"
	"github.com/kigundalevi/carsawa/internal/inventory"
	"github.com/kigundalevi/carsawa/internal/model"
	"github.com/kigundalevi/carsawa/internal/notify"
	"github.com/kigundalevi/carsawa/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired client components for one invocation.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	gw    *gateway.Client
	store *session.Store
}

func newApp(apiOverride string, verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiOverride != "" {
		cfg.APIBaseURL = strings.TrimRight(apiOverride, "/")
	}
	log := zap.NewNop()
	if verbose {
		log, _ = zap.NewDevelopment()
	}
	gw, err := gateway.New(cfg.APIBaseURL,
		gateway.WithLogger(log),
		gateway.WithTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:   cfg,
		log:   log,
		gw:    gw,
		store: session.New(gw, cfg.StateDir, log),
	}, nil
}

// requireSession restores the persisted session or exits with a login
// hint.
func (a *app) requireSession(ctx context.Context) model.Dealer {
	dealer, ok := a.store.Restore(ctx)
	if !ok {
		fmt.Fprintln(os.Stderr, "not logged in (run: dealer login)")
		os.Exit(1)
	}
	return dealer
}

func (a *app) thumbDir() string { return filepath.Join(a.cfg.StateDir, "thumbs") }

func (a *app) openCache() *cache.Cache {
	c, err := cache.Open(filepath.Join(a.cfg.StateDir, "inventory.db"))
	if err != nil {
		a.log.Warn("inventory cache unavailable", zap.Error(err))
		return nil
	}
	return c
}

func usage() {
	fmt.Fprintf(os.Stderr, `dealer CLI
Usage:
  dealer [-api URL] [-v] <cmd> [args]

Commands:
  version
  register   -name -email -password -phone -whatsapp -address -lat -lng [-photo file]
  login      -email <email> -password <password>
  logout
  me
  profile    [-name] [-email] [-password] [-phone] [-whatsapp] [-address -lat -lng] [-photo file]
  inventory  [-status Available|Sold|Reserved] [-cached]
  create     -name -make -model -year -price [-mileage] [-condition] [-transmission]
             -engine [-fuel] [-body] -color -images a.jpg,b.jpg
  edit       -id <id> [field flags] [-add a.jpg,b.jpg] [-remove 0,2]
  status     -id <id> -status Available|Sold|Reserved
  rm         -id <id> [-yes]
  watch
`)
	os.Exit(2)
}

// main dispatches subcommands against the configured backend.
func main() {
	api := flag.String("api", "", "backend base URL (overrides config)")
	verbose := flag.Bool("v", false, "verbose diagnostics")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("dealer %s (%s)\n", version, buildDate)
		return
	}

	a, err := newApp(*api, *verbose)
	if err != nil {
		fail(err)
	}
	defer func() { _ = a.log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cmd {
	case "register":
		cmdRegister(ctx, a, args)
	case "login":
		cmdLogin(ctx, a, args)
	case "logout":
		_, _ = a.store.Restore(ctx)
		if err := a.store.Logout(ctx); err != nil {
			fail(err)
		}
		fmt.Println("logged out")
	case "me":
		dealer := a.requireSession(ctx)
		printJSON(dealer)
	case "profile":
		cmdProfile(ctx, a, args)
	case "inventory":
		cmdInventory(ctx, a, args)
	case "create":
		cmdCreate(ctx, a, args)
	case "edit":
		cmdEdit(ctx, a, args)
	case "status":
		cmdStatus(ctx, a, args)
	case "rm":
		cmdRemove(ctx, a, args)
	case "watch":
		cmdWatch(ctx, a)
	default:
		usage()
	}
}

func cmdRegister(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "dealership name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	phone := fs.String("phone", "", "phone")
	whatsapp := fs.String("whatsapp", "", "whatsapp number")
	address := fs.String("address", "", "street address")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	photo := fs.String("photo", "", "profile image file (optional)")
	_ = fs.Parse(args)

	reg := model.Registration{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Phone:    *phone,
		WhatsApp: *whatsapp,
		Location: model.Location{Address: *address, Latitude: *lat, Longitude: *lng},
	}
	if *photo != "" {
		up, err := readUpload(*photo)
		if err != nil {
			fail(err)
		}
		reg.ProfileImage = up
	}
	dealer, err := a.store.Register(ctx, reg)
	if err != nil {
		fail(err)
	}
	printJSON(dealer)
}

func cmdLogin(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "need -email and -password")
		os.Exit(1)
	}
	dealer, err := a.store.Login(ctx, *email, *password)
	if err != nil {
		fail(err)
	}
	fmt.Printf("logged in as %s <%s>\n", dealer.Name, dealer.Email)
}

func cmdProfile(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "dealership name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "new password")
	phone := fs.String("phone", "", "phone")
	whatsapp := fs.String("whatsapp", "", "whatsapp number")
	address := fs.String("address", "", "street address")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	photo := fs.String("photo", "", "profile image file")
	_ = fs.Parse(args)

	a.requireSession(ctx)

	up := model.ProfileUpdate{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Phone:    *phone,
		WhatsApp: *whatsapp,
	}
	if *address != "" {
		up.Location = &model.Location{Address: *address, Latitude: *lat, Longitude: *lng}
	}
	if *photo != "" {
		img, err := readUpload(*photo)
		if err != nil {
			fail(err)
		}
		up.ProfileImage = img
	}
	dealer, err := a.store.UpdateProfile(ctx, up)
	if err != nil {
		fail(err)
	}
	printJSON(dealer)
}

func cmdInventory(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("inventory", flag.ExitOnError)
	status := fs.String("status", "", "filter by status")
	cached := fs.Bool("cached", false, "show last snapshot without refetching")
	_ = fs.Parse(args)

	dealer := a.requireSession(ctx)
	snap := a.openCache()
	if snap != nil {
		defer snap.Close()
	}
	inv := newInventory(a, snap, dealer.ID)

	if *cached {
		if !inv.LoadCached() {
			fmt.Fprintln(os.Stderr, "no local snapshot; run without -cached")
			os.Exit(1)
		}
	} else if err := inv.Refresh(ctx); err != nil {
		fail(err)
	}

	items := inv.Items()
	if *status != "" {
		items = inv.ByStatus(model.CarStatus(*status))
	}
	rows := make([]carRow, 0, len(items))
	for _, c := range items {
		rows = append(rows, carRow{
			ID:     c.ID,
			Name:   c.Fields.Name,
			Year:   c.Fields.Year,
			Price:  c.Fields.Price,
			Status: string(c.Fields.Status),
			Images: len(c.Images),
		})
	}
	printJSON(rows)
}

type carRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Year   int    `json:"year"`
	Price  int64  `json:"price"`
	Status string `json:"status"`
	Images int    `json:"images"`
}

func cmdCreate(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	d := editor.NewDraft(a.gw, a.thumbDir(), a.log)
	images := bindCarFlags(fs, &d.Fields)
	_ = fs.Parse(args)

	a.requireSession(ctx)
	if *images == "" {
		fmt.Fprintln(os.Stderr, "need -images")
		os.Exit(1)
	}
	if err := d.AddImages(strings.Split(*images, ",")...); err != nil {
		fail(err)
	}
	car, err := d.SubmitCreate(ctx)
	if err != nil {
		// Draft is preserved on failure, but a one-shot CLI cannot
		// retry; release previews before exiting.
		d.Discard()
		fail(err)
	}
	fmt.Printf("created %s\n", car.ID)
}

func cmdEdit(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("id", "", "listing id")
	var fields model.CarFields
	add := bindCarFlags(fs, &fields)
	remove := fs.String("remove", "", "comma-separated image indexes to remove")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	a.requireSession(ctx)
	d, err := editor.LoadDraft(ctx, a.gw, a.thumbDir(), a.log, *id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			fmt.Fprintln(os.Stderr, "car not found")
			os.Exit(1)
		}
		fail(err)
	}
	defer d.Discard()

	applySetFlags(fs, &d.Fields, fields)

	if *remove != "" {
		idxs, err := parseIndexes(*remove)
		if err != nil {
			fail(err)
		}
		// Remove from the highest index down so earlier removals do
		// not shift later targets.
		for _, i := range idxs {
			if err := d.RemoveImage(i); err != nil {
				fail(err)
			}
		}
	}
	if *add != "" {
		if err := d.AddImages(strings.Split(*add, ",")...); err != nil {
			fail(err)
		}
	}

	car, err := d.SubmitEdit(ctx)
	if err != nil {
		fail(err)
	}
	fmt.Printf("updated %s\n", car.ID)
}

func cmdStatus(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "listing id")
	status := fs.String("status", "", "Available|Sold|Reserved")
	_ = fs.Parse(args)
	if *id == "" || *status == "" {
		fmt.Fprintln(os.Stderr, "need -id and -status")
		os.Exit(1)
	}

	dealer := a.requireSession(ctx)
	snap := a.openCache()
	if snap != nil {
		defer snap.Close()
	}
	inv := newInventory(a, snap, dealer.ID)
	if err := inv.Refresh(ctx); err != nil {
		fail(err)
	}
	if err := inv.SetStatus(ctx, *id, model.CarStatus(*status)); err != nil {
		fail(err)
	}
	fmt.Printf("%s -> %s\n", *id, *status)
}

func cmdRemove(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.String("id", "", "listing id")
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	dealer := a.requireSession(ctx)
	inv := newInventory(a, nil, dealer.ID)
	if err := inv.Refresh(ctx); err != nil {
		fail(err)
	}
	confirm := func() bool {
		if *yes {
			return true
		}
		fmt.Printf("Are you sure you want to delete listing %s? [y/N] ", *id)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.EqualFold(strings.TrimSpace(line), "y")
	}
	if err := inv.Delete(ctx, *id, confirm); err != nil {
		fail(err)
	}
	fmt.Println("deleted")
}

func cmdWatch(ctx context.Context, a *app) {
	a.requireSession(ctx)
	w := notify.NewWatcher(a.gw, a.cfg.PollInterval, a.log)
	go w.Run(ctx)
	fmt.Println("watching notifications (ctrl-c to stop)")
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-w.C:
			fmt.Printf("unread notifications: %d\n", n)
		}
	}
}

// ---- helpers ----

func newInventory(a *app, snap *cache.Cache, dealerID string) *inventory.Inventory {
	if snap == nil {
		return inventory.New(a.gw, nil, dealerID, a.log)
	}
	return inventory.New(a.gw, snap, dealerID, a.log)
}

// bindCarFlags registers the car field flags on fs and returns the
// -images flag (comma-separated file paths).
func bindCarFlags(fs *flag.FlagSet, f *model.CarFields) *string {
	fs.StringVar(&f.Name, "name", f.Name, "listing title")
	fs.StringVar(&f.Make, "make", f.Make, "make")
	fs.StringVar(&f.Model, "model", f.Model, "model")
	fs.IntVar(&f.Year, "year", f.Year, "year")
	fs.Int64Var(&f.Price, "price", f.Price, "price")
	fs.Int64Var(&f.Mileage, "mileage", f.Mileage, "mileage (km)")
	fs.StringVar((*string)(&f.Condition), "condition", string(f.Condition), "New|Used|Certified Pre-Owned")
	fs.StringVar((*string)(&f.Transmission), "transmission", string(f.Transmission), "Automatic|Manual|CVT|Semi-Automatic")
	fs.StringVar(&f.EngineSize, "engine", f.EngineSize, "engine size, e.g. 4.0L")
	fs.StringVar((*string)(&f.FuelType), "fuel", string(f.FuelType), "Petrol|Diesel|Electric|Hybrid|CNG|LPG")
	fs.StringVar((*string)(&f.BodyType), "body", string(f.BodyType), "Sedan|SUV|Hatchback|Coupe|Convertible|Wagon|Van|Truck")
	fs.StringVar(&f.Color, "color", f.Color, "color")
	fs.StringVar((*string)(&f.Status), "status", string(f.Status), "Available|Sold|Reserved")
	return fs.String("images", "", "comma-separated image files")
}

// applySetFlags copies only the flags the user actually set from src
// onto dst, leaving loaded values intact.
func applySetFlags(fs *flag.FlagSet, dst *model.CarFields, src model.CarFields) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "name":
			dst.Name = src.Name
		case "make":
			dst.Make = src.Make
		case "model":
			dst.Model = src.Model
		case "year":
			dst.Year = src.Year
		case "price":
			dst.Price = src.Price
		case "mileage":
			dst.Mileage = src.Mileage
		case "condition":
			dst.Condition = src.Condition
		case "transmission":
			dst.Transmission = src.Transmission
		case "engine":
			dst.EngineSize = src.EngineSize
		case "fuel":
			dst.FuelType = src.FuelType
		case "body":
			dst.BodyType = src.BodyType
		case "color":
			dst.Color = src.Color
		case "status":
			dst.Status = src.Status
		}
	})
}

// parseIndexes parses a comma-separated index list, sorted descending.
func parseIndexes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad image index %q", p)
		}
		out = append(out, n)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] > out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func readUpload(path string) (*model.Upload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &model.Upload{Filename: filepath.Base(path), Data: b}, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "api error: %s\n", apiErr.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
