package database

import (
	"context"

	"github.com/bps3275/sinora/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repositories struct {
	Users      ports.UserRepository
	Sessions   ports.SessionRepository
	Mitra      ports.MitraRepository
	Kegiatan   ports.KegiatanRepository
	Honor      ports.HonorRepository
	Laporan    ports.LaporanRepository
	Outbox     ports.OutboxRepository
	UnitOfWork ports.UnitOfWork
}

func NewRepositories(db *gorm.DB, driver string) Repositories {
	d, err := NormalizeDriver(driver)
	if err != nil {
		d = DriverPostgres
	}
	return Repositories{
		Users:      &userRepository{db: db},
		Sessions:   &sessionRepository{db: db},
		Mitra:      &mitraRepository{db: db, driver: d},
		Kegiatan:   &kegiatanRepository{db: db},
		Honor:      &honorRepository{db: db},
		Laporan:    &laporanRepository{db: db},
		Outbox:     &outboxRepository{db: db, driver: d},
		UnitOfWork: &unitOfWork{db: db, driver: d},
	}
}

type unitOfWork struct {
	db     *gorm.DB
	driver string
}

// RunInTransaction hands fn repositories bound to a single transaction.
func (u *unitOfWork) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, ports.TxRepositories{
			Users:    &userRepository{db: tx},
			Sessions: &sessionRepository{db: tx},
			Mitra:    &mitraRepository{db: tx, driver: u.driver},
			Kegiatan: &kegiatanRepository{db: tx},
			Honor:    &honorRepository{db: tx},
			Outbox:   &outboxRepository{db: tx, driver: u.driver},
		})
	})
}

// forUpdate adds a row lock on PostgreSQL; SQLite already serializes writers.
func forUpdate(q *gorm.DB, driver string, options string) *gorm.DB {
	if driver != DriverPostgres {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE", Options: options})
}

const inChunkSize = 500

// chunk splits ids so IN lists stay under driver parameter limits.
func chunk(ids []string) [][]string {
	var out [][]string
	for len(ids) > inChunkSize {
		out = append(out, ids[:inChunkSize])
		ids = ids[inChunkSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
