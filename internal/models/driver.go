package models

import (
	"time"
)

const (
	DriverStatusActive    = "active"
	DriverStatusSuspended = "suspended"
)

type Vehicle struct {
	Make         string `firestore:"make" json:"make"`
	Model        string `firestore:"model" json:"model"`
	Colour       string `firestore:"colour" json:"colour"`
	Registration string `firestore:"registration" json:"registration"`
}

type Driver struct {
	DriverID          string              `firestore:"driverId" json:"driverId"` // Firebase uid
	FirstName         string              `firestore:"firstName" json:"firstName"`
	LastName          string              `firestore:"lastName" json:"lastName"`
	Email             string              `firestore:"email" json:"email"`
	Phone             string              `firestore:"phone" json:"phone"`
	Address           string              `firestore:"address" json:"address"`
	Postcode          string              `firestore:"postcode" json:"postcode"`
	Vehicle           Vehicle             `firestore:"vehicle" json:"vehicle"`
	Documents         map[string]Document `firestore:"documents" json:"documents"`
	Status            string              `firestore:"status" json:"status"`
	ApplicationID     string              `firestore:"applicationId,omitempty" json:"applicationId,omitempty"`
	Pending           PendingChangeSet    `firestore:"pendingChanges" json:"pendingChanges"`
	HasPendingChanges bool                `firestore:"hasPendingChanges" json:"hasPendingChanges"`
	CreatedAt         time.Time           `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `firestore:"updatedAt" json:"updatedAt"`
}

var driverSchema = Schema{
	Fields: []Field{
		FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldAddress, FieldPostcode,
		FieldVehicleMake, FieldVehicleModel, FieldVehicleColour, FieldVehicleRegistration,
	},
	Documents: []DocumentSpec{
		{Key: DocDrivingLicence, RequiresNumber: true, RequiresExpiry: true},
		{Key: DocBadge, RequiresNumber: true, RequiresExpiry: true, RequiresAuthority: true},
		{Key: DocVehicleLicence, RequiresNumber: true, RequiresExpiry: true, RequiresAuthority: true},
		{Key: DocInsurance, RequiresNumber: true, RequiresExpiry: true},
		{Key: DocMOT, RequiresExpiry: true},
	},
}

var driverFields = fieldTable[Driver]{
	FieldFirstName:           func(d *Driver) *string { return &d.FirstName },
	FieldLastName:            func(d *Driver) *string { return &d.LastName },
	FieldEmail:               func(d *Driver) *string { return &d.Email },
	FieldPhone:               func(d *Driver) *string { return &d.Phone },
	FieldAddress:             func(d *Driver) *string { return &d.Address },
	FieldPostcode:            func(d *Driver) *string { return &d.Postcode },
	FieldVehicleMake:         func(d *Driver) *string { return &d.Vehicle.Make },
	FieldVehicleModel:        func(d *Driver) *string { return &d.Vehicle.Model },
	FieldVehicleColour:       func(d *Driver) *string { return &d.Vehicle.Colour },
	FieldVehicleRegistration: func(d *Driver) *string { return &d.Vehicle.Registration },
}

func DriverSchema() Schema { return driverSchema }

func (d Driver) Schema() Schema { return driverSchema }

func (d Driver) FieldValue(f Field) (string, bool) { return driverFields.get(d, f) }

func (d Driver) WithField(f Field, value string) (Driver, bool) { return driverFields.set(d, f, value) }

func (d Driver) Document(key DocumentKey) Document { return d.Documents[string(key)] }

func (d Driver) WithDocument(key DocumentKey, doc Document) Driver {
	d.Documents = withDocument(d.Documents, key, doc)
	return d
}

func (d Driver) PendingChanges() PendingChangeSet { return d.Pending }

func (d Driver) WithPendingChanges(set PendingChangeSet) Driver {
	d.Pending = set.Clone()
	d.HasPendingChanges = len(set) > 0
	return d
}
