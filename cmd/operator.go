package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"econsim/config"
	"econsim/domain/interfaces"
	"econsim/domain/utils"

	"github.com/spf13/cobra"
)

// withEconomy opens a runtime for one operator command
func withEconomy(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

// operatorFlag registers --as and returns a checker for it
func operatorFlag(cmd *cobra.Command) func() (int64, error) {
	var operatorID int64
	cmd.Flags().Int64Var(&operatorID, "as", 0, "operator account id")
	_ = cmd.MarkFlagRequired("as")
	return func() (int64, error) {
		if !config.Get().IsOperator(operatorID) {
			return 0, fmt.Errorf("account %d is not an operator", operatorID)
		}
		return operatorID, nil
	}
}

func parseID(text string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", text)
	}
	return id, nil
}

func parseAmount(text string) (int64, error) {
	return utils.ParseAmount(text, 1, nil)
}

func newTaxNowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tax-now",
		Short: "Run today's wealth tax if it is due",
		Args:  cobra.NoArgs,
	}
	checkOperator := operatorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkOperator(); err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			result, ran, err := rt.economy.RunTaxIfDue(ctx)
			if err != nil {
				return err
			}
			if !ran {
				status, err := rt.economy.TaxStatus(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("No tax run for %s (eligible=%t, last=%s)\n", status.DateKey, status.Eligible, status.LastTaxDate)
				return nil
			}
			cmd.Printf("Taxed %d accounts for %s, collected %s. Lottery pool: %s\n",
				result.AccountsTaxed, result.DateKey, utils.FormatMoney(result.TotalTax), utils.FormatMoney(result.PoolAfter))
			return nil
		})
	}
	return cmd
}

func newDrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw the lottery now",
		Args:  cobra.NoArgs,
	}
	checkOperator := operatorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkOperator(); err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			draw, err := rt.economy.Draw(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Draw %s: %v PB %d\n", draw.ID, draw.Numbers, draw.Powerball)
			for _, p := range draw.Payouts {
				cmd.Printf("  account %d %s: %s (tax %s)\n", p.AccountID, p.Tier, utils.FormatMoney(p.Net), utils.FormatMoney(p.Tax))
			}
			cmd.Printf("Pool %s -> %s\n", utils.FormatMoney(draw.PoolBefore), utils.FormatMoney(draw.PoolAfter))
			return nil
		})
	}
	return cmd
}

func newMarketCmd() *cobra.Command {
	marketCmd := &cobra.Command{
		Use:   "market",
		Short: "Market administration",
	}

	setCmd := &cobra.Command{
		Use:   "set SYMBOL PRICE LIQUIDITY",
		Short: "Reseed a market at a price with currency liquidity and clear its history",
		Args:  cobra.ExactArgs(3),
	}
	checkOperator := operatorFlag(setCmd)
	setCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkOperator(); err != nil {
			return err
		}
		price, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", args[1])
		}
		liquidity, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			m, err := rt.economy.SetMarket(ctx, args[0], price, float64(liquidity))
			if err != nil {
				return err
			}
			cmd.Printf("%s reset to %s with reserves %s / %s\n", m.Symbol,
				utils.FormatCurrencyFloat(m.LastPrice, 6),
				utils.FormatCurrencyFloat(m.ReserveCurrency, 2),
				utils.FormatAssetQuantity(m.ReserveAsset, 6))
			return nil
		})
	}

	marketCmd.AddCommand(setCmd)
	return marketCmd
}

func newGiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "give ACCOUNT AMOUNT",
		Short: "Mint currency into an account",
		Args:  cobra.ExactArgs(2),
	}
	checkOperator := operatorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkOperator(); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			account, err := rt.economy.Give(ctx, id, amount)
			if err != nil {
				return err
			}
			cmd.Printf("Gave %s to %d. Balance: %s\n", utils.FormatMoney(amount), id, utils.FormatMoney(account.Balance))
			return nil
		})
	}
	return cmd
}

func newTakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take ACCOUNT AMOUNT",
		Short: "Remove currency from an account, up to its balance",
		Args:  cobra.ExactArgs(2),
	}
	checkOperator := operatorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkOperator(); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			taken, err := rt.economy.Take(ctx, id, amount)
			if err != nil {
				return err
			}
			cmd.Printf("Took %s from %d\n", utils.FormatMoney(taken), id)
			return nil
		})
	}
	return cmd
}

func newBetCmd() *cobra.Command {
	betCmd := &cobra.Command{
		Use:   "bet",
		Short: "Parimutuel bet administration",
	}

	createCmd := &cobra.Command{
		Use:   "create TITLE OPTION OPTION [OPTION...]",
		Short: "Open a bet with two or more options",
		Args:  cobra.MinimumNArgs(3),
	}
	checkCreate := operatorFlag(createCmd)
	createCmd.RunE = func(cmd *cobra.Command, args []string) error {
		operatorID, err := checkCreate()
		if err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			bet, err := rt.economy.CreateBet(ctx, operatorID, args[0], args[1:])
			if err != nil {
				return err
			}
			cmd.Printf("Bet #%d opened: %s\n", bet.ID, bet.Title)
			for _, o := range bet.Options {
				cmd.Printf("  %d. %s\n", o.OptionNum, o.Label)
			}
			return nil
		})
	}

	closeCmd := &cobra.Command{
		Use:   "close BET",
		Short: "Stop accepting wagers",
		Args:  cobra.ExactArgs(1),
	}
	checkClose := operatorFlag(closeCmd)
	closeCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkClose(); err != nil {
			return err
		}
		betID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			bet, err := rt.economy.CloseBet(ctx, betID)
			if err != nil {
				return err
			}
			cmd.Printf("Bet #%d closed\n", bet.ID)
			return nil
		})
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve BET OPTION",
		Short: "Settle a bet on the winning option",
		Args:  cobra.ExactArgs(2),
	}
	checkResolve := operatorFlag(resolveCmd)
	resolveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkResolve(); err != nil {
			return err
		}
		betID, err := parseID(args[0])
		if err != nil {
			return err
		}
		option, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid option %q", args[1])
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			settlement, err := rt.economy.ResolveBet(ctx, betID, option)
			if err != nil {
				return err
			}
			printSettlement(cmd, settlement)
			return nil
		})
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel BET [NOTE]",
		Short: "Refund every wager",
		Args:  cobra.RangeArgs(1, 2),
	}
	checkCancel := operatorFlag(cancelCmd)
	cancelCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkCancel(); err != nil {
			return err
		}
		betID, err := parseID(args[0])
		if err != nil {
			return err
		}
		note := ""
		if len(args) == 2 {
			note = args[1]
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			settlement, err := rt.economy.CancelBet(ctx, betID, note)
			if err != nil {
				return err
			}
			printSettlement(cmd, settlement)
			return nil
		})
	}

	bonusCmd := &cobra.Command{
		Use:   "bonus BET AMOUNT",
		Short: "Add house-funded bonus to an open bet",
		Args:  cobra.ExactArgs(2),
	}
	checkBonus := operatorFlag(bonusCmd)
	bonusCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := checkBonus(); err != nil {
			return err
		}
		betID, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withEconomy(cmd, func(ctx context.Context, rt *runtime) error {
			bet, err := rt.economy.AddBonusPool(ctx, betID, amount)
			if err != nil {
				return err
			}
			cmd.Printf("Bet #%d bonus pool: %s\n", bet.ID, utils.FormatMoney(bet.BonusPool))
			return nil
		})
	}

	betCmd.AddCommand(createCmd, closeCmd, resolveCmd, cancelCmd, bonusCmd)
	return betCmd
}

func printSettlement(cmd *cobra.Command, s *interfaces.BetSettlement) {
	verb := "paid"
	if s.Refunded {
		verb = "refunded"
	}
	cmd.Printf("Bet #%d %s. Pool %s %s to %d accounts\n", s.Bet.ID, s.Bet.Status, utils.FormatMoney(s.TotalPool), verb, len(s.Payouts))
	for _, p := range s.Payouts {
		cmd.Printf("  account %d: %s\n", p.AccountID, utils.FormatMoney(p.Total))
	}
}
