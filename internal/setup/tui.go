package setup

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vadiminshakov/swapsim/internal/domain"
	"github.com/vadiminshakov/swapsim/internal/events"
	"github.com/vadiminshakov/swapsim/pkg/amount"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warn      = lipgloss.AdaptiveColor{Light: "#BF4343", Dark: "#F57373"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)

	warnStyle = lipgloss.NewStyle().
			Foreground(warn).
			Bold(true)
)

// SessionEngine is the slice of the swap engine the terminal form drives.
type SessionEngine interface {
	SelectSource(code string) error
	SelectTarget(code string) error
	EditAmount(raw string) error
	RequestTrade() (domain.TradeSnapshot, error)
	Confirm(ctx context.Context) (<-chan error, error)
	CancelConfirmation() error
	Acknowledge()
	SnapshotView() events.SwapSnapshot
}

// RunTUI launches the interactive terminal swap form. It loops until the
// user quits or ctx is cancelled.
func RunTUI(ctx context.Context, engine SessionEngine) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		again, err := runOnce(ctx, engine)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

func runOnce(ctx context.Context, engine SessionEngine) (bool, error) {
	snap := engine.SnapshotView()

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("CURRENCY SWAP SIMULATOR"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Simulated trades only, nothing leaves your terminal.\n"))
	fmt.Println(renderBalances(snap))

	// source currency
	fmt.Println(stepStyle.Render("STEP 1: SOURCE CURRENCY"))
	source := snap.Source
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sell which currency?").
				Options(currencyOptions(snap.Options, snap.Target)...).
				Value(&source),
		),
	).Run()
	if err != nil {
		return false, err
	}
	if err := engine.SelectSource(source); err != nil {
		return false, err
	}

	// target currency
	fmt.Println(stepStyle.Render("STEP 2: TARGET CURRENCY"))
	target := engine.SnapshotView().Target
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Buy which currency?").
				Options(currencyOptions(snap.Options, source)...).
				Value(&target),
		),
	).Run()
	if err != nil {
		return false, err
	}
	if err := engine.SelectTarget(target); err != nil {
		return false, err
	}

	// amount
	fmt.Println(stepStyle.Render("STEP 3: AMOUNT"))
	amountStr := engine.SnapshotView().Amount
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Amount of %s to swap", source)).
				Description("Digits with an optional decimal separator ('.' or ',')").
				Value(&amountStr).
				Validate(func(s string) error {
					_, ok, err := amount.Sanitize(s)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("amount cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return false, err
	}
	if err := engine.EditAmount(amountStr); err != nil {
		return false, err
	}

	// request + confirm
	tradeSnap, err := engine.RequestTrade()
	if err != nil {
		fmt.Println(warnStyle.Render(engine.SnapshotView().Message))
		return askAgain()
	}

	confirmed := false
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Swap %s %s for ~%s %s?", tradeSnap.Amount.String(), tradeSnap.Source,
					tradeSnap.Quote.String(), tradeSnap.Target)).
				Value(&confirmed),
		),
	).Run()
	if err != nil {
		return false, err
	}

	if !confirmed {
		if err := engine.CancelConfirmation(); err != nil {
			return false, err
		}
		return askAgain()
	}

	done, err := engine.Confirm(ctx)
	if err != nil {
		return false, err
	}

	fmt.Println(stepStyle.Render("SETTLING..."))
	if settleErr := <-done; settleErr != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("settlement failed: %v", settleErr)))
		engine.Acknowledge()
		return askAgain()
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("Trade settled."))
	fmt.Println(renderBalances(engine.SnapshotView()))
	return askAgain()
}

func askAgain() (bool, error) {
	again := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Another trade?").
				Value(&again),
		),
	).Run()
	return again, err
}

func currencyOptions(opts []events.Option, exclude string) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(opts))
	for _, o := range opts {
		if o.Code == exclude {
			continue
		}
		out = append(out, huh.NewOption(o.Code, o.Code))
	}
	return out
}

func renderBalances(snap events.SwapSnapshot) string {
	codes := make([]string, 0, len(snap.Balances))
	for code, bal := range snap.Balances {
		if bal != "0" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	summary := "Balances:\n"
	for _, code := range codes {
		summary += fmt.Sprintf("  %s: %s\n", code, snap.Balances[code])
	}
	return lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary)
}
