package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/safar/go-storefront/internal/cart"
	"github.com/safar/go-storefront/internal/models"
)

var errLoginRequired = errors.New("log in first: storefront login")

func (c *cli) requireLogin() error {
	if !c.app.Session.IsAuthenticated() {
		return errLoginRequired
	}
	return nil
}

func (c *cli) productsCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "products [id]",
		Short: "Browse the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				p, err := c.app.API.GetProduct(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			}

			res, err := c.app.API.ListProducts(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
			for _, p := range res.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
			}
			fmt.Fprintf(tw, "page %d of %d\n", res.Page, res.TotalPages)
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "products per page")
	return cmd
}

func (c *cli) cartCmd() *cobra.Command {
	show := func(cmd *cobra.Command) error {
		lines := c.app.Cart.Lines()
		out := cmd.OutOrStdout()
		if len(lines) == 0 {
			fmt.Fprintln(out, "Cart is empty")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
		for _, l := range lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ProductID, l.Name, l.UnitPrice.StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
		}
		fmt.Fprintf(tw, "\t\t\t%d\t%s\n", c.app.Cart.ItemCount(), c.app.Cart.TotalPrice().StringFixed(2))
		return tw.Flush()
	}

	root := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "List cart lines and the total",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "add <product-id> [quantity]",
			Short: "Add a product; a negative quantity removes units",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.requireLogin(); err != nil {
					return err
				}
				qty := 1
				if len(args) == 2 {
					n, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("quantity %q: %w", args[1], err)
					}
					qty = n
				}
				p, err := c.app.API.GetProduct(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := c.app.Cart.AddItem(cmd.Context(), *p, qty); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Cart.RemoveItem(cmd.Context(), args[0]); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <quantity>",
			Short: "Set a line's quantity; zero removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity %q: %w", args[1], err)
				}
				if err := c.app.Cart.UpdateQuantity(cmd.Context(), args[0], n); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Cart.ClearCart(cmd.Context())
			},
		},
	)
	return root
}

func (c *cli) checkoutCmd() *cobra.Command {
	var in cart.CheckoutInput

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			order, err := c.app.Cart.Checkout(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order placed successfully! %s\n", order.OrderNumber)
			return printJSON(cmd.OutOrStdout(), order)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.ShippingAddress.Address, "address", "", "street address")
	f.StringVar(&in.ShippingAddress.City, "city", "", "city")
	f.StringVar(&in.ShippingAddress.PostalCode, "pincode", "", "postal code")
	f.StringVar(&in.ShippingAddress.State, "state", "", "state")
	f.StringVar(&in.ShippingAddress.Country, "country", models.DefaultCountry, "country")
	f.StringVar(&in.PaymentMethod, "payment", "cod", "payment method")
	return cmd
}

func (c *cli) ordersCmd() *cobra.Command {
	var cursor string
	var limit int

	cmd := &cobra.Command{
		Use:   "orders [id]",
		Short: "List your orders or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				order, err := c.app.Cart.FetchOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), order)
			}

			if err := c.app.Cart.SyncOrders(ctx); err != nil {
				return err
			}
			page, err := c.app.Cart.OrdersPage(cursor, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tPLACED\tSTATUS\tITEMS\tTOTAL")
			for _, o := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", o.OrderNumber, o.PlacedAt.Local().Format("2006-01-02 15:04"), o.DisplayStatus(), len(o.Items), o.TotalPrice.StringFixed(2))
			}
			if page.HasMore {
				fmt.Fprintf(tw, "more: storefront orders --cursor %s\n", page.NextCursor)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")
	cmd.Flags().IntVar(&limit, "limit", 10, "orders per page")
	return cmd
}
