package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tania063/katalog-challenge/internal/cart"
	"github.com/tania063/katalog-challenge/internal/catalog"
	"github.com/tania063/katalog-challenge/internal/chat"
	"github.com/tania063/katalog-challenge/internal/config"
	"github.com/tania063/katalog-challenge/internal/storage"
)

// newCartManager builds the shopper-local cart backed by files under the
// data dir. The cart never leaves this machine; the server only sees the
// product and rating traffic.
var newCartManager = func() (*cart.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := cart.NewStore(filepath.Join(cfg.Storage.DataDir, "cart"))
	if err != nil {
		return nil, fmt.Errorf("opening cart store: %w", err)
	}
	return cart.NewManager(store), nil
}

func fetchProducts(cmd *cobra.Command, client *apiClient) ([]catalog.Product, error) {
	resp, err := client.get(cmd.Context(), "/products")
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	if err := decodeJSON(resp, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// cachedProduct resolves a product id against the locally cached catalog,
// refreshing the cache from the server when the id is not found.
func cachedProduct(cmd *cobra.Command, mgr *cart.Manager, id int) (catalog.Product, error) {
	products, err := mgr.CachedProducts()
	if err != nil {
		return catalog.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}

	client, err := newAPIClient()
	if err != nil {
		return catalog.Product{}, err
	}
	products, err = fetchProducts(cmd, client)
	if err != nil {
		return catalog.Product{}, err
	}
	if err := mgr.CacheProducts(products); err != nil {
		return catalog.Product{}, err
	}

	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, fmt.Errorf("no product with id %d", id)
}

func parseProductID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

// --- products ---

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the product catalog with current stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		products, err := fetchProducts(cmd, client)
		if err != nil {
			return err
		}

		// Refresh the local catalog cache so cart edits clamp against
		// the stock figures the shopper just saw.
		mgr, err := newCartManager()
		if err != nil {
			return err
		}
		if err := mgr.CacheProducts(products); err != nil {
			return err
		}

		for _, p := range products {
			stock := fmt.Sprintf("%d in stock", p.Stock)
			if p.Stock == 0 {
				stock = colorize(colorYellow, "out of stock")
			}
			fmt.Printf("%4d  %-50s  $%8s  %s\n",
				p.ID, truncate(p.Title, 50), p.Price.StringFixed(2), stock)
		}
		return nil
	},
}

// --- cart ---

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the local shopping cart",
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}

		mgr, err := newCartManager()
		if err != nil {
			return err
		}

		p, err := cachedProduct(cmd, mgr, id)
		if err != nil {
			return err
		}
		if p.Stock == 0 {
			printWarning("%s is out of stock", p.Title)
			return nil
		}

		if err := mgr.Add(p); err != nil {
			return err
		}
		printSuccess("Added %s to cart", p.Title)
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}

		mgr, err := newCartManager()
		if err != nil {
			return err
		}
		if err := mgr.Remove(id); err != nil {
			return err
		}
		printSuccess("Removed product %d from cart", id)
		return nil
	},
}

var cartQtyCmd = &cobra.Command{
	Use:   "qty <product-id> <quantity>",
	Short: "Set the quantity of a cart line (clamped to stock)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		mgr, err := newCartManager()
		if err != nil {
			return err
		}
		if err := mgr.SetQuantity(id, qty); err != nil {
			return err
		}

		lines, err := mgr.Lines()
		if err != nil {
			return err
		}
		for _, l := range lines {
			if l.ProductID == id {
				if l.Quantity != qty {
					printWarning("Quantity adjusted to %d (stock limit)", l.Quantity)
				} else {
					printSuccess("Quantity set to %d", l.Quantity)
				}
				return nil
			}
		}
		printWarning("Product %d is not in the cart", id)
		return nil
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cart contents and totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newCartManager()
		if err != nil {
			return err
		}

		lines, err := mgr.Lines()
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			fmt.Println("Your cart is empty.")
			return nil
		}

		for _, l := range lines {
			fmt.Printf("%4d  %-50s  %3d × $%s\n",
				l.ProductID, truncate(l.Title, 50), l.Quantity, l.Price.StringFixed(2))
		}

		totals := cart.ComputeTotals(lines)
		fmt.Printf("\n%s %d items, $%s\n",
			colorize(colorBold, "Total:"), totals.Items, totals.Price.StringFixed(2))
		return nil
	},
}

func init() {
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartQtyCmd)
	cartCmd.AddCommand(cartShowCmd)
}

// --- checkout ---

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place the order and empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newCartManager()
		if err != nil {
			return err
		}

		totals, err := mgr.Totals()
		if err != nil {
			return err
		}
		if totals.Items == 0 {
			fmt.Println("Your cart is empty.")
			return nil
		}

		printStep("Placing order for %d items ($%s)...", totals.Items, totals.Price.StringFixed(2))
		if err := mgr.Checkout(); err != nil {
			return err
		}
		printSuccess("Order placed. Your cart is now empty.")
		return nil
	},
}

// --- ratings ---

var rateCmd = &cobra.Command{
	Use:   "rate <1-5>",
	Short: "Submit a store rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseRating(args[0])
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/ratings", map[string]int{"value": value})
		if err != nil {
			return err
		}

		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Thanks for rating us %d/5", value)
		return nil
	},
}

func parseRating(arg string) (int, error) {
	value, err := strconv.Atoi(arg)
	if err != nil || value < 1 || value > 5 {
		return 0, fmt.Errorf("rating must be an integer from 1 to 5, got %q", arg)
	}
	return value, nil
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Show the store rating aggregate",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/ratings")
		if err != nil {
			return err
		}

		var summary storage.RatingSummary
		if err := decodeJSON(resp, &summary); err != nil {
			return err
		}

		if summary.Count == 0 {
			fmt.Println("No ratings yet.")
			return nil
		}
		fmt.Printf("%.2f average over %d votes\n", summary.Average, summary.Count)
		return nil
	},
}

// --- contact ---

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message to the store owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		message, _ := cmd.Flags().GetString("message")

		if message == "" {
			return fmt.Errorf("--message is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]string{
			"name":    name,
			"email":   email,
			"message": message,
		}
		resp, err := client.post(cmd.Context(), "/contact", body)
		if err != nil {
			return err
		}

		var result struct {
			Message string `json:"message"`
			Data    struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Message sent (id %s)", result.Data.ID)
		return nil
	},
}

func init() {
	contactCmd.Flags().String("name", "", "your name")
	contactCmd.Flags().String("email", "", "your email address")
	contactCmd.Flags().String("message", "", "the message to send")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the store assistant a question",
	Long: `Ask the store assistant a question.

With a message argument a single answer is printed. Without arguments an
interactive session starts; end it with Ctrl-D or an empty line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			reply, err := askAssistant(cmd, client, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		}

		// Interactive session. One request is in flight at a time; the
		// transcript only exists on this side of the connection.
		var transcript []chat.Turn
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Fprintln(os.Stderr, "Chat with the store assistant. Empty line ends the session.")
		for {
			fmt.Fprint(os.Stderr, "> ")
			if !scanner.Scan() {
				break
			}
			message := strings.TrimSpace(scanner.Text())
			if message == "" {
				break
			}

			transcript = append(transcript, chat.Turn{Text: message, Sender: "user"})
			reply, err := askAssistant(cmd, client, message)
			if err != nil {
				printError("%v", err)
				continue
			}
			transcript = append(transcript, chat.Turn{Text: reply, Sender: "bot"})
			fmt.Println(reply)
		}
		if len(transcript) > 0 {
			fmt.Fprintf(os.Stderr, "Session ended after %d turns.\n", len(transcript))
		}
		return scanner.Err()
	},
}

func askAssistant(cmd *cobra.Command, client *apiClient, message string) (string, error) {
	resp, err := client.post(cmd.Context(), "/chat", map[string]string{"message": message})
	if err != nil {
		return "", err
	}

	var result struct {
		Reply string `json:"reply"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}
	return result.Reply, nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List valid configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range config.ValidKeys() {
			fmt.Println(k)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
