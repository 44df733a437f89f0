package domain

import "time"

// DriverApproval represents the administrative approval state of a driver.
type DriverApproval string

const (
	DriverApprovalPending  DriverApproval = "pending"
	DriverApprovalApproved DriverApproval = "approved"
)

// Driver represents a vehicle operator.
type Driver struct {
	ID               string
	Name             string
	Phone            string
	VehicleName      string
	PlateNumber      string
	VehiclePhotoPath string // storage path only; the file itself lives elsewhere
	Approval         DriverApproval
	IsAvailable      bool
	VehicleUpdatedAt time.Time // zero if the vehicle descriptor was never set
	CreatedAt        time.Time
	UpdatedAt        time.Time
	RetiredAt        time.Time
}

// HasVehicle reports whether the vehicle descriptor is complete enough for
// the driver to take rides.
func (d *Driver) HasVehicle() bool {
	return d.VehicleName != "" && d.PlateNumber != ""
}
