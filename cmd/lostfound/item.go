package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lostfound/internal/app"
	"lostfound/internal/model"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage found items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a found item",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		f := cmd.Flags()
		lp, _ := f.GetString("lp")
		category, _ := f.GetString("category")
		description, _ := f.GetString("description")
		receivedBy, _ := f.GetString("received-by")
		owner, _ := f.GetString("owner")
		docType, _ := f.GetString("doc-type")
		brand, _ := f.GetString("brand")
		address, _ := f.GetString("address")

		a, err := newApp(cmd, "item add", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		svc := a.Service()
		if lp == "" {
			lp, err = svc.NextLP(cmd.Context(), model.Category(category))
			if err != nil {
				return err
			}
		}

		item, err := svc.CreateItem(cmd.Context(), &model.Item{
			LP:           lp,
			Category:     model.Category(category),
			Description:  description,
			ReceivedBy:   receivedBy,
			OwnerName:    model.StringPtr(owner),
			DocumentType: model.StringPtr(docType),
			Brand:        model.StringPtr(brand),
			Address:      model.StringPtr(address),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s (id %d)\n", item.LP, item.ID)
		return nil
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "Search items, newest first",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		f := cmd.Flags()
		var filter model.ItemFilter
		filter.LP, _ = f.GetString("lp")
		filter.Name, _ = f.GetString("name")
		filter.Brand, _ = f.GetString("brand")
		category, _ := f.GetString("category")
		status, _ := f.GetString("status")
		filter.Category = model.Category(category)
		filter.Status = model.Status(status)

		a, err := newApp(cmd, "item list", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		items, err := a.Service().SearchItems(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%5d  %-6s  %-16s  %s  %s  %s\n",
				item.ID,
				item.LP,
				item.Category,
				statusLabel(string(item.Status)),
				item.CreatedAt,
				item.Description,
			)
		}
		return nil
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "item show", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		item, err := a.Service().GetItem(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("LP:                %s\n", item.LP)
		fmt.Printf("Kategoria:         %s\n", item.Category)
		fmt.Printf("Opis:              %s\n", item.Description)
		printOptional("Imię i nazwisko:", item.OwnerName)
		printOptional("Typ dokumentu:", item.DocumentType)
		printOptional("Marka:", item.Brand)
		printOptional("Adres:", item.Address)
		fmt.Printf("Osoba przyjmująca: %s\n", item.ReceivedBy)
		fmt.Printf("Status:            %s\n", statusLabel(string(item.Status)))
		fmt.Printf("Utworzono:         %s\n", item.CreatedAt)
		fmt.Printf("Zmodyfikowano:     %s\n", item.ModifiedAt)
		return nil
	},
}

func printOptional(label string, value *string) {
	if value != nil && *value != "" {
		fmt.Printf("%-19s%s\n", label, *value)
	}
}

var itemToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Switch an item between found and returned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "item toggle", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		item, err := a.Service().ToggleStatus(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", item.LP, statusLabel(string(item.Status)))
		return nil
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "item delete", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		if err := a.Service().DeleteItem(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted item %d\n", id)
		return nil
	},
}

var itemNextLPCmd = &cobra.Command{
	Use:   "next-lp CATEGORY",
	Short: "Propose the next catalog number for a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "item next-lp", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		lp, err := a.Service().NextLP(cmd.Context(), model.Category(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(lp)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func init() {
	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemListCmd)
	itemCmd.AddCommand(itemShowCmd)
	itemCmd.AddCommand(itemToggleCmd)
	itemCmd.AddCommand(itemDeleteCmd)
	itemCmd.AddCommand(itemNextLPCmd)

	add := itemAddCmd.Flags()
	add.String("lp", "", "Catalog number (default: next free number in the category)")
	add.StringP("category", "c", "", "Category: Dokumenty, Portfele, Plecaki i nerki, Telefony, Elektronika, Klucze")
	add.StringP("description", "d", "", "Item description")
	add.StringP("received-by", "r", "", "Staff member who received the item")
	add.String("owner", "", "Owner name (documents, wallets, bags)")
	add.String("doc-type", "", "Document type (documents, wallets, bags)")
	add.String("brand", "", "Brand (phones)")
	add.String("address", "", "Where the item was found")
	_ = itemAddCmd.MarkFlagRequired("category")

	list := itemListCmd.Flags()
	list.String("lp", "", "Catalog number substring")
	list.String("name", "", "Owner name substring")
	list.String("brand", "", "Brand substring")
	list.String("category", "", "Exact category")
	list.String("status", "", "Exact status: Znaleziony or Wydany")
}
