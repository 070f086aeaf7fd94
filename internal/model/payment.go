package model

// PaymentType is a known payment source, or Unknown.
type PaymentType string

const (
	BayadCenter PaymentType = "BayadCenter"
	BDO         PaymentType = "BDO"
	PNB         PaymentType = "PNB"
	Cebuana     PaymentType = "Cebuana"
	Chinabank   PaymentType = "Chinabank"
	CIS         PaymentType = "CIS"
	Metrobank   PaymentType = "Metrobank"
	Unionbank   PaymentType = "Unionbank"
	ECPAY       PaymentType = "ECPAY"
	PERALINK    PaymentType = "PERALINK"
	SM          PaymentType = "SM"
	Unknown     PaymentType = "Unknown"
)

// PaymentTypes lists the known payment sources in catalogue order.
var PaymentTypes = []PaymentType{
	BayadCenter, BDO, PNB, Cebuana, Chinabank, CIS,
	Metrobank, Unionbank, ECPAY, PERALINK, SM,
}

// Known reports whether p is in the catalogue.
func (p PaymentType) Known() bool {
	for _, k := range PaymentTypes {
		if p == k {
			return true
		}
	}
	return false
}

func (p PaymentType) String() string { return string(p) }
