package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/starva/storefront/internal/adapter/gateway"
	"github.com/starva/storefront/internal/adapter/storage"
	"github.com/starva/storefront/internal/config"
	"github.com/starva/storefront/internal/core/domain"
	"github.com/starva/storefront/internal/core/service"
	"github.com/starva/storefront/internal/port"
)

const usage = `usage: storefront <command> [flags]

commands:
  cart add        add a product to the cart
  cart list       show the cart with totals and fees
  cart qty        set a line's quantity (0 removes it)
  cart notes      set a line's special instructions
  cart remove     remove a line
  cart clear      empty the cart
  cart location   set the delivery location
  cart sync       refresh stock snapshots from the server
  checkout        place the cart as an order
  cancel          cancel a placed order
  pay             pay an order via mobile money and wait for the result
  pay-pending     re-check payment attempts that never resolved
  like            toggle a product like
  follow          toggle a merchant follow
`

type app struct {
	cfg      *config.Config
	cart     *service.CartService
	checkout *service.CheckoutService
	poller   *service.PaymentPoller
	social   *service.SocialService
	journal  port.PaymentJournal
	gateway  port.Gateway
	close    func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var journal port.PaymentJournal
	var db *sql.DB
	if cfg.MySQLDSN != "" {
		var err error
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		journal = storage.NewMySQLAdapter(db)
	}

	gw := gateway.NewHTTPGateway(cfg.APIBaseURL, cfg.SessionCookie, nil)
	cart := service.NewCartService(storage.NewRedisAdapter(rdb, cfg.Profile))
	if err := cart.Restore(ctx); err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		cart:     cart,
		checkout: service.NewCheckoutService(cart, gw),
		poller:   service.NewPaymentPoller(gw, journal, cfg.PollInterval, cfg.PollTimeout),
		social:   service.NewSocialService(gw),
		journal:  journal,
		gateway:  gw,
		close: func() {
			rdb.Close()
			if db != nil {
				db.Close()
			}
		},
	}, nil
}

func main() {
	log.SetFlags(0)

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// second-level cart commands collapse into one word for dispatch
	command := args[0]
	if command == "cart" && len(args) > 1 {
		command = "cart " + args[1]
		args = args[1:]
	}
	args = args[1:]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.close()

	if err := a.dispatch(ctx, command, args); err != nil {
		log.Fatalf("%v", err)
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "cart add":
		return a.cartAdd(ctx, args)
	case "cart list":
		return a.cartList()
	case "cart qty":
		return a.cartQty(ctx, args)
	case "cart notes":
		return a.cartNotes(ctx, args)
	case "cart remove":
		return a.cartRemove(ctx, args)
	case "cart clear":
		return a.cart.ClearCart(ctx)
	case "cart location":
		return a.cartLocation(ctx, args)
	case "cart sync":
		return a.cartSync(ctx)
	case "checkout":
		return a.placeOrder(ctx)
	case "cancel":
		return a.cancelOrder(ctx, args)
	case "pay":
		return a.pay(ctx, args)
	case "pay-pending":
		return a.payPending(ctx)
	case "like":
		return a.like(ctx, args)
	case "follow":
		return a.follow(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cartAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart add", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	name := fs.String("name", "", "product name")
	slug := fs.String("slug", "", "product slug")
	org := fs.String("org", "", "organization id")
	price := fs.Float64("price", 0, "unit price")
	category := fs.String("category", "", "product category")
	qty := fs.Int("qty", 1, "quantity")
	stock := fs.Int("stock", -1, "known stock, -1 when untracked")
	fs.Parse(args)

	if *id == "" || *org == "" {
		return fmt.Errorf("cart add: -id and -org are required")
	}

	item := domain.CartItem{
		ProductID:      *id,
		ProductName:    *name,
		ProductSlug:    *slug,
		OrganizationID: *org,
		Price:          *price,
		Category:       *category,
	}
	if *stock >= 0 {
		item.InventoryEnabled = true
		item.CurrentStock = stock
	}

	if err := a.cart.AddItem(ctx, item, *qty); err != nil {
		return err
	}
	fmt.Printf("added %s x%d\n", *id, *qty)
	return nil
}

func (a *app) cartList() error {
	snapshot := a.cart.Snapshot()
	if len(snapshot.Items) == 0 {
		fmt.Println("cart is empty")
		return nil
	}

	for _, item := range snapshot.Items {
		line := fmt.Sprintf("%-24s x%-3d %10.0f RWF", item.ProductName, item.Quantity, item.Price*float64(item.Quantity))
		if item.InventoryEnabled && item.CurrentStock != nil {
			line += fmt.Sprintf("  (stock %d)", *item.CurrentStock)
		}
		fmt.Println(line)
	}

	fees := a.checkout.Fees()
	fmt.Printf("\nitems: %d\n", a.cart.ItemCount())
	fmt.Printf("subtotal:      %10.0f RWF\n", fees.BaseAmount)
	fmt.Printf("processor fee: %10.0f RWF\n", fees.ProcessorFee)
	fmt.Printf("platform fee:  %10.0f RWF\n", fees.PlatformFee)
	fmt.Printf("total:         %10.0f RWF\n", fees.TotalAmount)
	if snapshot.DeliveryLocation != "" {
		fmt.Printf("deliver to: %s\n", snapshot.DeliveryLocation)
	}
	return nil
}

func (a *app) cartQty(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart qty", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	qty := fs.Int("n", 1, "new quantity, 0 removes the line")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("cart qty: -id is required")
	}
	return a.cart.UpdateQuantity(ctx, *id, *qty)
}

func (a *app) cartNotes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart notes", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	notes := fs.String("text", "", "special instructions")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("cart notes: -id is required")
	}
	return a.cart.UpdateNotes(ctx, *id, *notes)
}

func (a *app) cartRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart remove", flag.ExitOnError)
	id := fs.String("id", "", "product id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("cart remove: -id is required")
	}
	return a.cart.RemoveItem(ctx, *id)
}

func (a *app) cartLocation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart location", flag.ExitOnError)
	location := fs.String("text", "", "delivery location")
	notes := fs.String("notes", "", "order-level notes")
	fs.Parse(args)

	if err := a.cart.SetDeliveryLocation(ctx, *location); err != nil {
		return err
	}
	if *notes != "" {
		return a.cart.SetOrderNotes(ctx, *notes)
	}
	return nil
}

func (a *app) cartSync(ctx context.Context) error {
	if err := a.checkout.SyncStock(ctx); err != nil {
		return err
	}
	fmt.Println("stock snapshots refreshed")
	return a.cartList()
}

func (a *app) placeOrder(ctx context.Context) error {
	summary, err := a.checkout.PlaceOrder(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("order #%d placed (%s), total %s\n", summary.OrderNumber, summary.OrderID, summary.TotalPrice)
	for _, warning := range summary.StockWarnings {
		fmt.Printf("warning: %s\n", warning)
	}
	return nil
}

func (a *app) cancelOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	orderID := fs.String("order", "", "order id")
	fs.Parse(args)

	if *orderID == "" {
		return fmt.Errorf("cancel: -order is required")
	}
	if err := a.checkout.CancelOrder(ctx, *orderID); err != nil {
		return err
	}
	fmt.Println("order cancelled")
	return nil
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	orderID := fs.String("order", "", "order id")
	phone := fs.String("phone", "", "mobile money number, 9 digits")
	fs.Parse(args)

	if *orderID == "" || *phone == "" {
		return fmt.Errorf("pay: -order and -phone are required")
	}

	events, err := a.poller.Start(ctx, *orderID, *phone)
	if err != nil {
		return err
	}
	defer a.poller.Stop()

	for event := range events {
		switch event.Kind {
		case service.PaymentEventPending:
			fmt.Println("initiating payment...")
		case service.PaymentEventPolling:
			fmt.Println("waiting for approval on your phone...")
		case service.PaymentEventSuccess:
			fmt.Println("payment successful")
		case service.PaymentEventFailed:
			return fmt.Errorf("payment failed: %s", event.Message)
		case service.PaymentEventTimeout:
			fmt.Printf("payment still pending: %s\n", event.Message)
		}
	}
	return nil
}

func (a *app) payPending(ctx context.Context) error {
	if a.journal == nil {
		return fmt.Errorf("pay-pending: MYSQL_DSN is not configured")
	}

	attempts, err := a.journal.ListUnresolved(ctx)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println("no unresolved payment attempts")
		return nil
	}

	for _, attempt := range attempts {
		status, err := a.gateway.PaymentStatus(ctx, attempt.OrderID, attempt.Reference)
		if err != nil {
			log.Printf("order %s: status check failed: %v", attempt.OrderID, err)
			continue
		}
		fmt.Printf("order %s (initiated %s): %s\n", attempt.OrderID, attempt.CreatedAt.Format(time.DateTime), status)

		switch status {
		case domain.GatewayStatusSuccessful:
			_ = a.journal.UpdateStatus(ctx, attempt.ID, domain.PaymentSuccess)
		case domain.GatewayStatusFailed:
			_ = a.journal.UpdateStatus(ctx, attempt.ID, domain.PaymentFailed)
		}
	}
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	slug := fs.String("slug", "", "product slug")
	liked := fs.Bool("liked", false, "current like state")
	fs.Parse(args)

	if *slug == "" {
		return fmt.Errorf("like: -slug is required")
	}
	a.social.SetLiked(*slug, *liked)
	state, err := a.social.ToggleLike(ctx, *slug)
	if err != nil {
		return err
	}
	if state {
		fmt.Printf("liked %s\n", *slug)
	} else {
		fmt.Printf("unliked %s\n", *slug)
	}
	return nil
}

func (a *app) follow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("follow", flag.ExitOnError)
	slug := fs.String("slug", "", "merchant slug")
	following := fs.Bool("following", false, "current follow state")
	fs.Parse(args)

	if *slug == "" {
		return fmt.Errorf("follow: -slug is required")
	}
	a.social.SetFollowing(*slug, *following)
	state, err := a.social.ToggleFollow(ctx, *slug)
	if err != nil {
		return err
	}
	if state {
		fmt.Printf("following %s\n", *slug)
	} else {
		fmt.Printf("unfollowed %s\n", *slug)
	}
	return nil
}
