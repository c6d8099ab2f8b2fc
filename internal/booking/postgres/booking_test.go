package postgres

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/booking"
)

func TestBookingRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Booking Repository Suite")
}

type BookingSQLite struct {
	ID            int64     `gorm:"primaryKey"`
	CustomerName  string    `gorm:"column:customer_name;not null"`
	CustomerEmail string    `gorm:"column:customer_email;not null"`
	CustomerPhone string    `gorm:"column:customer_phone"`
	PackageRef    string    `gorm:"column:package_ref;not null"`
	Amount        int64     `gorm:"column:amount;not null"`
	Currency      string    `gorm:"column:currency;not null"`
	Status        string    `gorm:"column:status;not null;default:pending"`
	PaymentStatus string    `gorm:"column:payment_status;not null;default:pending"`
	AssignedTo    *int64    `gorm:"column:assigned_to"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (BookingSQLite) TableName() string {
	return "bookings"
}

var _ = ginkgo.Describe("BookingRepository", func() {
	var (
		db   *gorm.DB
		repo booking.Repository
	)

	newBooking := func(name, packageRef, status string) *booking.Booking {
		return &booking.Booking{
			CustomerName:  name,
			CustomerEmail: name + "@example.com",
			PackageRef:    packageRef,
			Amount:        125000,
			Currency:      "INR",
			Status:        status,
			PaymentStatus: booking.PaymentStatusPending,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
	}

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&BookingSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewBookingRepository(db)
	})

	ginkgo.Describe("Create and GetByID", func() {
		ginkgo.It("round-trips a booking", func() {
			b := newBooking("asha", "GOA-5D", booking.StatusPending)

			gomega.Expect(repo.Create(b)).To(gomega.Succeed())
			gomega.Expect(b.ID).To(gomega.BeNumerically(">", 0))

			got, err := repo.GetByID(b.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.PackageRef).To(gomega.Equal("GOA-5D"))
			gomega.Expect(got.Status).To(gomega.Equal(booking.StatusPending))
		})

		ginkgo.It("maps a miss to the booking not-found error", func() {
			_, err := repo.GetByID(999)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrBookingNotFound))
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.BeforeEach(func() {
			gomega.Expect(repo.Create(newBooking("asha", "GOA-5D", booking.StatusPending))).To(gomega.Succeed())
			gomega.Expect(repo.Create(newBooking("karan", "KERALA-7D", booking.StatusConfirmed))).To(gomega.Succeed())
			gomega.Expect(repo.Create(newBooking("lina", "LADAKH-10D", booking.StatusCancelled))).To(gomega.Succeed())
		})

		ginkgo.It("filters by status", func() {
			out, err := repo.List(booking.ListParams{Status: booking.StatusConfirmed, Limit: 10})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(out).To(gomega.HaveLen(1))
			gomega.Expect(out[0].PackageRef).To(gomega.Equal("KERALA-7D"))
		})

		ginkgo.It("filters by assignee", func() {
			guideID := int64(5)
			b := newBooking("meera", "RAJASTHAN-6D", booking.StatusPending)
			b.AssignedTo = &guideID
			gomega.Expect(repo.Create(b)).To(gomega.Succeed())

			out, err := repo.List(booking.ListParams{AssignedTo: &guideID, Limit: 10})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(out).To(gomega.HaveLen(1))
			gomega.Expect(out[0].PackageRef).To(gomega.Equal("RAJASTHAN-6D"))
		})
	})

	ginkgo.Describe("UpdateFields", func() {
		ginkgo.It("leaves untouched columns alone", func() {
			b := newBooking("asha", "GOA-5D", booking.StatusPending)
			gomega.Expect(repo.Create(b)).To(gomega.Succeed())

			err := repo.UpdateFields(b.ID, map[string]interface{}{
				"payment_status": booking.PaymentStatusPaid,
				"updated_at":     time.Now(),
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			got, err := repo.GetByID(b.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.PaymentStatus).To(gomega.Equal(booking.PaymentStatusPaid))
			gomega.Expect(got.Status).To(gomega.Equal(booking.StatusPending))
			gomega.Expect(got.CustomerName).To(gomega.Equal("asha"))
		})

		ginkgo.It("maps an unknown id to the booking not-found error", func() {
			err := repo.UpdateFields(999, map[string]interface{}{"status": booking.StatusConfirmed})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrBookingNotFound))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("removes the row", func() {
			b := newBooking("asha", "GOA-5D", booking.StatusPending)
			gomega.Expect(repo.Create(b)).To(gomega.Succeed())

			gomega.Expect(repo.Delete(b.ID)).To(gomega.Succeed())

			_, err := repo.GetByID(b.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrBookingNotFound))
		})

		ginkgo.It("maps an unknown id to the booking not-found error", func() {
			gomega.Expect(repo.Delete(999)).To(gomega.MatchError(internal.ErrBookingNotFound))
		})
	})
})
