package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/database"
	"github.com/qs3c/hrsync_server/internal/repository"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, only count affected subscriptions")
	pendingExpire = flag.Int("pending-expire", 0, "Hours to keep unpaid pending orders (0 uses billing.pending_expire_hours)")
	expireLapsed  = flag.Bool("expire-lapsed", true, "Mark active subscriptions past their expiry as expired")
	seedPlans     = flag.Bool("seed-plans", false, "Insert the default plans when the plan table is empty")
)

func main() {
	flag.Parse()

	log.Println("🧹 Starting billing maintenance...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	subRepo := repository.NewSubscriptionRepository(db)
	planRepo := repository.NewPlanRepository(db)

	hours := *pendingExpire
	if hours <= 0 {
		hours = cfg.Billing.PendingExpireHour
	}
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	before := now.Add(-time.Duration(hours) * time.Hour)

	var stale, lapsed int64
	seeded := 0

	// 1. 长期未支付的 pending 订单
	log.Printf("Checking pending orders older than %d hours...", hours)
	if *dryRun {
		stale, err = subRepo.CountStalePending(before)
	} else {
		stale, err = subRepo.ExpireStalePending(before)
	}
	if err != nil {
		log.Fatalf("Failed to process pending orders: %v", err)
	}

	// 2. 已过期的 active 订阅
	if *expireLapsed && !*dryRun {
		log.Println("Expiring lapsed subscriptions...")
		lapsed, err = subRepo.ExpireLapsed(now)
		if err != nil {
			log.Fatalf("Failed to expire subscriptions: %v", err)
		}
	}

	// 3. 默认套餐
	if *seedPlans && !*dryRun {
		seeded, err = planRepo.SeedDefaults()
		if err != nil {
			log.Fatalf("Failed to seed plans: %v", err)
		}
	}

	log.Println(strings.Repeat("=", 60))
	log.Println("📊 Maintenance Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Stale pending orders: %d", stale)
	log.Printf("Lapsed subscriptions: %d", lapsed)
	log.Printf("Seeded plans: %d", seeded)
	if *dryRun {
		log.Println("⚠️  DRY RUN MODE - nothing was changed")
		log.Println("   Run with -dry-run=false to apply")
	} else {
		log.Println("✅ Maintenance completed!")
	}
	log.Println(strings.Repeat("=", 60))
}
