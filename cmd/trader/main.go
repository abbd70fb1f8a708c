package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"QuantumTrader/internal/auth"
	"QuantumTrader/internal/config"
	"QuantumTrader/internal/ledger"
	"QuantumTrader/internal/market"
	"QuantumTrader/internal/model"
	"QuantumTrader/internal/store"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] QuantumTrader starting...")

	// .env first so config env overrides see it
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init store
	var st store.Store
	if cfg.Storage.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("[FATAL] init sqlite store: %v", err)
		}
		st = ss
	} else {
		cs, err := store.NewCSVStore(cfg.Storage.DataDir)
		if err != nil {
			log.Fatalf("[FATAL] init csv store: %v", err)
		}
		st = cs
		log.Printf("[INFO] csv store opened: %s", cfg.Storage.DataDir)
	}
	defer st.Close()

	// Init market engine with the configured catalog
	engine := market.NewEngine()
	for _, in := range cfg.Market.Instruments {
		if err := engine.Register(in.Symbol, in.Name, decimal.NewFromFloat(in.Price)); err != nil {
			log.Fatalf("[FATAL] register %s: %v", in.Symbol, err)
		}
	}

	authSvc := auth.NewService(st, decimal.NewFromFloat(cfg.Account.InitialBalance).Round(2))

	scanner := bufio.NewScanner(os.Stdin)
	account, ok := authenticate(authSvc, scanner)
	if !ok {
		return
	}

	ldg, err := ledger.Open(engine, st, account)
	if err != nil {
		log.Fatalf("[FATAL] open ledger: %v", err)
	}

	if err := engine.Start(cfg.TickDuration(), nil); err != nil {
		log.Fatalf("[FATAL] start market engine: %v", err)
	}
	defer engine.Stop()

	// Stop cleanly on Ctrl+C even while blocked on stdin
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] shutdown signal received, stopping...")
		engine.Stop()
		st.Close()
		os.Exit(0)
	}()

	runShell(scanner, engine, ldg)
	log.Println("[INFO] QuantumTrader stopped")
}

// authenticate loops until a successful login or EOF.
func authenticate(svc *auth.Service, scanner *bufio.Scanner) (model.Account, bool) {
	fmt.Println("commands: login <user> <pass> | signup <user> <pass>")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return model.Account{}, false
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			fmt.Println("usage: login <user> <pass> | signup <user> <pass>")
			continue
		}
		switch fields[0] {
		case "login":
			a, err := svc.Login(fields[1], fields[2])
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("welcome %s, balance %s\n", a.Username, a.Balance.StringFixed(2))
			return a, true
		case "signup":
			if err := svc.Signup(fields[1], fields[2]); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("signup successful, login now")
		default:
			fmt.Println("usage: login <user> <pass> | signup <user> <pass>")
		}
	}
}

// runShell is the interactive trading loop.
func runShell(scanner *bufio.Scanner, engine *market.Engine, ldg *ledger.Ledger) {
	fmt.Println("commands: quotes | buy <sym> <qty> | sell <sym> <qty> | portfolio | history | balance | quit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quotes":
			for _, in := range engine.List() {
				fmt.Printf("%-10s %-24s %12s  %+.2f%%\n",
					in.Symbol, in.Name, in.Price.StringFixed(2), in.DailyChangePercent())
			}
		case "buy", "sell":
			if len(fields) != 3 {
				fmt.Printf("usage: %s <sym> <qty>\n", fields[0])
				continue
			}
			qty, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				fmt.Println("invalid quantity")
				continue
			}
			trade := ldg.Buy
			if fields[0] == "sell" {
				trade = ldg.Sell
			}
			tx, err := trade(fields[1], qty)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("%s %d x %s @ %s, balance %s\n",
				tx.Kind, tx.Quantity, tx.Symbol, tx.Price.StringFixed(2), ldg.Account().Balance.StringFixed(2))
		case "portfolio":
			for _, h := range ldg.Holdings() {
				cur := h.AvgCost
				if q, err := engine.Quote(h.Symbol); err == nil {
					cur = q.Price
				}
				fmt.Printf("%-10s qty %5d  avg %12s  cur %12s  value %12s  p/l %12s\n",
					h.Symbol, h.Quantity, h.AvgCost.StringFixed(2), cur.StringFixed(2),
					h.MarketValue(cur).StringFixed(2), h.UnrealizedPL(cur).StringFixed(2))
			}
		case "history":
			for _, tx := range ldg.Transactions() {
				fmt.Printf("%-4s %-10s qty %5d @ %12s  %s\n",
					tx.Kind, tx.Symbol, tx.Quantity, tx.Price.StringFixed(2),
					tx.ExecutedAt.Format("2006-01-02 15:04:05"))
			}
		case "balance":
			fmt.Println(ldg.Account().Balance.StringFixed(2))
		case "quit", "exit":
			return
		default:
			fmt.Println("commands: quotes | buy <sym> <qty> | sell <sym> <qty> | portfolio | history | balance | quit")
		}
	}
}
