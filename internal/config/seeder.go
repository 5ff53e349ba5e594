package config

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"nagarseva/internal/adapters/persistence/models"
)

// SeedMasterData seeds wards, sub-zones and complaint types
func SeedMasterData(db *gorm.DB) error {
	if err := seedComplaintTypes(db); err != nil {
		return err
	}
	if err := seedWards(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedComplaintTypes(db *gorm.DB) error {
	types := []models.ComplaintType{
		{
			Code:            "WATER_SUPPLY",
			Name:            "Water Supply",
			Description:     "No supply, low pressure, contaminated water, pipeline leakage",
			DefaultPriority: "HIGH",
			SLAHours:        48,
			IsActive:        true,
		},
		{
			Code:            "ELECTRICITY",
			Name:            "Electricity",
			Description:     "Power outage, faulty meter, dangerous wiring",
			DefaultPriority: "HIGH",
			SLAHours:        24,
			IsActive:        true,
		},
		{
			Code:            "ROAD_REPAIR",
			Name:            "Road Repair",
			Description:     "Potholes, broken pavement, damaged speed breakers",
			DefaultPriority: "MEDIUM",
			SLAHours:        168,
			IsActive:        true,
		},
		{
			Code:            "GARBAGE_COLLECTION",
			Name:            "Garbage Collection",
			Description:     "Missed pickup, overflowing bins, illegal dumping",
			DefaultPriority: "MEDIUM",
			SLAHours:        48,
			IsActive:        true,
		},
		{
			Code:            "STREET_LIGHTING",
			Name:            "Street Lighting",
			Description:     "Dark stretches, flickering or broken street lights",
			DefaultPriority: "MEDIUM",
			SLAHours:        72,
			IsActive:        true,
		},
		{
			Code:            "DRAINAGE",
			Name:            "Drainage",
			Description:     "Blocked or overflowing storm drains, waterlogging",
			DefaultPriority: "HIGH",
			SLAHours:        48,
			IsActive:        true,
		},
		{
			Code:            "SEWERAGE",
			Name:            "Sewerage",
			Description:     "Sewer overflow, broken manhole covers, foul smell",
			DefaultPriority: "CRITICAL",
			SLAHours:        24,
			IsActive:        true,
		},
		{
			Code:            "OTHERS",
			Name:            "Others",
			Description:     "Anything that does not fit the categories above",
			DefaultPriority: "LOW",
			SLAHours:        168,
			IsActive:        true,
		},
	}

	for _, ct := range types {
		if err := upsertComplaintType(db, ct); err != nil {
			return err
		}
	}
	return nil
}

func upsertComplaintType(db *gorm.DB, ct models.ComplaintType) error {
	var existing models.ComplaintType
	err := db.Where("code = ?", ct.Code).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&ct).Error
	}
	return err
}

func seedWards(db *gorm.DB) error {
	wards := []models.Ward{
		{
			Code:     "W01",
			Name:     "Ward 1 - Gandhi Nagar",
			IsActive: true,
			SubZones: []models.SubZone{
				{Code: "W01-A", Name: "Gandhi Nagar East", IsActive: true},
				{Code: "W01-B", Name: "Gandhi Nagar West", IsActive: true},
			},
		},
		{
			Code:     "W02",
			Name:     "Ward 2 - Nehru Colony",
			IsActive: true,
			SubZones: []models.SubZone{
				{Code: "W02-A", Name: "Nehru Colony North", IsActive: true},
				{Code: "W02-B", Name: "Nehru Colony South", IsActive: true},
				{Code: "W02-C", Name: "Industrial Estate", IsActive: true},
			},
		},
		{
			// Deliberately without sub-zones: forms must treat the
			// sub-zone field as optional for this ward
			Code:     "W03",
			Name:     "Ward 3 - Station Road",
			IsActive: true,
		},
		{
			Code:     "W04",
			Name:     "Ward 4 - Lake View",
			IsActive: true,
			SubZones: []models.SubZone{
				{Code: "W04-A", Name: "Lake View Market", IsActive: true},
			},
		},
	}

	for _, w := range wards {
		var existing models.Ward
		err := db.Where("code = ?", w.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&w).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
