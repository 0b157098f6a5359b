// internal/discovery/usb/database.go
package usb

import (
	"github.com/google/gousb"
)

// InterfaceDatabase contains known J2534 pass-thru interfaces
type InterfaceDatabase struct {
	vendors map[gousb.ID]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[gousb.ID]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Model string
}

// NewInterfaceDatabase creates and initializes the pass-thru database
func NewInterfaceDatabase() *InterfaceDatabase {
	db := &InterfaceDatabase{
		vendors: make(map[gousb.ID]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

// initializeDatabase populates the known interfaces
func (db *InterfaceDatabase) initializeDatabase() {
	// FTDI (0x0403) - most pass-thru cables enumerate on FTDI bridges
	ftdi := &VendorInfo{
		Name:     "FTDI",
		products: make(map[gousb.ID]*ProductInfo),
	}
	ftdi.products[0xCC4C] = &ProductInfo{Model: "Tactrix Openport 1.3"}
	ftdi.products[0xCC4D] = &ProductInfo{Model: "Tactrix Openport 2.0"}
	db.vendors[0x0403] = ftdi

	// Kvaser (0x0BFD)
	kvaser := &VendorInfo{
		Name:     "Kvaser",
		products: make(map[gousb.ID]*ProductInfo),
	}
	kvaser.products[0x0120] = &ProductInfo{Model: "Kvaser Leaf Light v2"}
	db.vendors[0x0BFD] = kvaser

	// Peak-System (0x0C72)
	peak := &VendorInfo{
		Name:     "Peak-System",
		products: make(map[gousb.ID]*ProductInfo),
	}
	peak.products[0x000C] = &ProductInfo{Model: "PCAN-USB"}
	peak.products[0x0012] = &ProductInfo{Model: "PCAN-USB Pro"}
	db.vendors[0x0C72] = peak

	// Silicon Labs (0x10C4) - CP210x based pass-thru boxes
	silabs := &VendorInfo{
		Name:     "Silicon Labs",
		products: make(map[gousb.ID]*ProductInfo),
	}
	db.vendors[0x10C4] = silabs
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *InterfaceDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// GetVendorInfo retrieves vendor information
func (db *InterfaceDatabase) GetVendorInfo(vendorID gousb.ID) *VendorInfo {
	return db.vendors[vendorID]
}

// GetProductInfo retrieves product information from vendor
func (vi *VendorInfo) GetProductInfo(productID gousb.ID) *ProductInfo {
	return vi.products[productID]
}

// AddVendor adds a new vendor to the database
func (db *InterfaceDatabase) AddVendor(vendorID gousb.ID, info *VendorInfo) {
	if info.products == nil {
		info.products = make(map[gousb.ID]*ProductInfo)
	}
	db.vendors[vendorID] = info
}

// AddProduct adds a new product to an existing vendor
func (db *InterfaceDatabase) AddProduct(vendorID, productID gousb.ID, info *ProductInfo) {
	if vendor, exists := db.vendors[vendorID]; exists {
		vendor.products[productID] = info
	}
}
