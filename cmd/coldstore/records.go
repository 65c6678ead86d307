package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/warehouse"
)

func printWarnings(w warehouse.Warnings) {
	for _, msg := range w {
		fmt.Printf("  warning: %s\n", msg)
	}
}

func roomCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "room", Short: "Manage storage rooms"}

	var name, floor, newName, newFloor string

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			room, warnings, err := svc.CreateRoom(cmd.Context(), warehouse.RoomInput{Name: name, Floor: floor})
			if err != nil {
				return err
			}
			fmt.Printf("Added room: %s (%s, floor %s)\n", room.ID, room.Name, room.Floor)
			printWarnings(warnings)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "room name")
	add.Flags().StringVar(&floor, "floor", "1", "floor (1-4)")

	edit := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cur, err := svc.GetRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := warehouse.RoomInput{Name: cur.Name, Floor: cur.Floor}
			if cmd.Flags().Changed("name") {
				in.Name = newName
			}
			if cmd.Flags().Changed("floor") {
				in.Floor = newFloor
			}
			room, warnings, err := svc.UpdateRoom(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Printf("Updated room: %s (%s, floor %s)\n", room.ID, room.Name, room.Floor)
			printWarnings(warnings)
			return nil
		},
	}
	edit.Flags().StringVar(&newName, "name", "", "room name")
	edit.Flags().StringVar(&newFloor, "floor", "", "floor (1-4)")

	rm := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a room with its entries and lots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.DeleteRoom(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted room: %s\n", args[0])
			return nil
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rooms, err := svc.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			printRooms(rooms)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle [id]",
		Short: "Flip the displayed status into a manual override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			room, err := svc.ToggleManualStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s (manual)\n", room.Name, room.DisplayStatus())
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm, ls, toggle)
	return cmd
}

func printRooms(rooms []domain.Room) {
	if len(rooms) == 0 {
		fmt.Println("No rooms yet. Use 'coldstore room add' to create one.")
		return
	}
	for _, r := range rooms {
		manual := ""
		if r.ManualStatus != nil {
			manual = " (manual)"
		}
		fmt.Printf("%s  %-12s floor %s  %5d bags  %8.3f t  %s%s\n",
			r.ID, truncate(r.Name, 12), r.Floor, r.BagCount, r.TotalWeight, r.DisplayStatus(), manual)
	}
}

func clientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage clients"}

	var name, phone1, phone2 string

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			c, warnings, err := svc.CreateClient(cmd.Context(), warehouse.ClientInput{Name: name, Phone1: phone1, Phone2: phone2})
			if err != nil {
				return err
			}
			fmt.Printf("Added client: %s (%s)\n", c.ID, c.Name)
			printWarnings(warnings)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cur, err := svc.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := warehouse.ClientInput{Name: cur.Name, Phone1: cur.Phone1, Phone2: cur.Phone2}
			if cmd.Flags().Changed("name") {
				in.Name = name
			}
			if cmd.Flags().Changed("phone1") {
				in.Phone1 = phone1
			}
			if cmd.Flags().Changed("phone2") {
				in.Phone2 = phone2
			}
			c, warnings, err := svc.UpdateClient(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Printf("Updated client: %s (%s)\n", c.ID, c.Name)
			printWarnings(warnings)
			return nil
		},
	}

	for _, c := range []*cobra.Command{add, edit} {
		c.Flags().StringVar(&name, "name", "", "client name")
		c.Flags().StringVar(&phone1, "phone1", "", "first phone number")
		c.Flags().StringVar(&phone2, "phone2", "", "second phone number")
	}

	rm := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a client and their entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.DeleteClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted client: %s\n", args[0])
			return nil
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			clients, err := svc.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			printClients(clients)
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm, ls)
	return cmd
}

func printClients(clients []domain.Client) {
	if len(clients) == 0 {
		fmt.Println("No clients yet. Use 'coldstore client add' to create one.")
		return
	}
	for _, c := range clients {
		phones := c.Phone1
		if c.Phone2 != "" {
			phones += ", " + c.Phone2
		}
		fmt.Printf("%s  %-20s %s\n", c.ID, truncate(c.Name, 20), phones)
	}
}

func entryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "entry", Short: "Manage intake entries"}

	var in warehouse.EntryInput

	add := &cobra.Command{
		Use:   "add",
		Short: "Record an intake",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			e, err := svc.CreateEntry(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Added entry: %s (%d bags into %s for %s)\n", e.ID, e.BagCount, e.RoomName, e.ClientName)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit an intake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cur, err := svc.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			next := warehouse.EntryInput{
				Date:        cur.Date,
				BagCount:    cur.BagCount,
				Weight:      cur.Weight,
				ClientID:    cur.ClientID,
				RoomID:      cur.RoomID,
				ThreadColor: cur.ThreadColor,
				Notes:       cur.Notes,
			}
			f := cmd.Flags()
			if f.Changed("date") {
				next.Date = in.Date
			}
			if f.Changed("bags") {
				next.BagCount = in.BagCount
			}
			if f.Changed("weight") {
				next.Weight = in.Weight
			}
			if f.Changed("client") {
				next.ClientID = in.ClientID
			}
			if f.Changed("room") {
				next.RoomID = in.RoomID
			}
			if f.Changed("thread") {
				next.ThreadColor = in.ThreadColor
			}
			if f.Changed("notes") {
				next.Notes = in.Notes
			}

			e, err := svc.UpdateEntry(cmd.Context(), args[0], next)
			if err != nil {
				return err
			}
			fmt.Printf("Updated entry: %s\n", e.ID)
			return nil
		},
	}

	for _, c := range []*cobra.Command{add, edit} {
		c.Flags().StringVar(&in.Date, "date", "", "intake date (YYYY-MM-DD)")
		c.Flags().IntVar(&in.BagCount, "bags", 0, "number of bags")
		c.Flags().Float64Var(&in.Weight, "weight", 0, "weight in tons")
		c.Flags().StringVar(&in.ClientID, "client", "", "client id")
		c.Flags().StringVar(&in.RoomID, "room", "", "room id")
		c.Flags().StringVar(&in.ThreadColor, "thread", "", "thread color")
		c.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	}

	rm := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete an intake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted entry: %s\n", args[0])
			return nil
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List intakes",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := svc.ListEntries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No entries yet. Use 'coldstore entry add' to create one.")
				return nil
			}
			printEntries(entries)
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm, ls)
	return cmd
}

func printEntries(entries []domain.Entry) {
	for _, e := range entries {
		fmt.Printf("%s  %s  %-12s %-12s %5d bags  %8.3f t  %s\n",
			e.ID, e.Date, truncate(e.ClientName, 12), truncate(e.RoomName, 12), e.BagCount, e.Weight, truncate(e.Notes, 30))
	}
}

func lotCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "lot", Short: "Manage lots within a room"}

	var in warehouse.LotInput

	add := &cobra.Command{
		Use:   "add [room-id]",
		Short: "Add a lot to a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			lot, err := svc.CreateLot(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Printf("Added lot %s: %s (%d bags)\n", lot.Number, lot.ID, lot.BagCount)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit [room-id] [lot-id]",
		Short: "Edit a lot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			lots, err := svc.ListLotsForRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var cur *domain.Lot
			for i := range lots {
				if lots[i].ID == args[1] {
					cur = &lots[i]
					break
				}
			}
			if cur == nil {
				return domain.NotFound("lot", args[1])
			}
			next := warehouse.LotInput{Number: string(cur.Number), BagCount: cur.BagCount}
			if cmd.Flags().Changed("number") {
				next.Number = in.Number
			}
			if cmd.Flags().Changed("bags") {
				next.BagCount = in.BagCount
			}

			lot, err := svc.UpdateLot(cmd.Context(), args[0], args[1], next)
			if err != nil {
				return err
			}
			fmt.Printf("Updated lot %s: %s (%d bags)\n", lot.Number, lot.ID, lot.BagCount)
			return nil
		},
	}

	for _, c := range []*cobra.Command{add, edit} {
		c.Flags().StringVar(&in.Number, "number", "", "lot number")
		c.Flags().IntVar(&in.BagCount, "bags", 0, "number of bags")
	}

	rm := &cobra.Command{
		Use:   "rm [room-id] [lot-id]",
		Short: "Delete a lot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.DeleteLot(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Deleted lot: %s\n", args[1])
			return nil
		},
	}

	ls := &cobra.Command{
		Use:   "ls [room-id]",
		Short: "List the lots of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			lots, err := svc.ListLotsForRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printLots(lots)
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm, ls)
	return cmd
}

func printLots(lots []domain.Lot) {
	if len(lots) == 0 {
		fmt.Println("  (no lots)")
		return
	}
	for _, l := range lots {
		fmt.Printf("  %s  lot %-6s %5d bags\n", l.ID, l.Number, l.BagCount)
	}
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
