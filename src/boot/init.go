package boot

import (
	"context"
	"log"
	"time"

	"github.com/gawwe-id/oknum/src/lib"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb(db *gorm.DB) *gorm.DB {
	err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Schedule{},
		&models.Booking{},
		&models.Payment{},
		&models.PaymentCallbackLog{},
		&models.Notification{},
		&models.Issue{},
		&models.ConsultantRequest{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// PaymentExpirer is satisfied by the payments service.
type PaymentExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// InitScheduler starts the background jobs. The caller owns the returned
// scheduler and must pass it to StopScheduler on exit.
func InitScheduler(expirer PaymentExpirer, sweepInterval time.Duration) gocron.Scheduler {
	sched, err := lib.NewScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return nil
	}
	if _, err := lib.CreateCronJob(sched, "expire-stale-payments", sweepInterval, func(ctx context.Context) {
		expirer.ExpireStale(ctx)
	}); err != nil {
		log.Printf("Error running job: %s\n", err.Error())
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
	return sched
}

func StopScheduler(sched gocron.Scheduler) {
	if sched == nil {
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
	}
}
