package settings

// Address families accepted in ADDR_FAMILY.
const (
	FamilyINET  = "INET"
	FamilyINET6 = "INET6"
)

// Settings is the typed device configuration built once at startup.
// It is never modified after validation.
type Settings struct {
	SSID           string
	Key            string
	MaxConnections int
	Timeout        int
	Port           int
	Static         bool
	Addr           string
	Mask           string
	Gateway        string
	AddrFamily     string
}

// FromValues builds Settings from validated values of the default schema.
func FromValues(v Values) *Settings {
	return &Settings{
		SSID:           v.String(KeySSID),
		Key:            v.String(KeyKey),
		MaxConnections: v.Int(KeyMaxCon),
		Timeout:        v.Int(KeyTimeout),
		Port:           v.Int(KeyPort),
		Static:         v.Bool(KeyStatic),
		Addr:           v.String(KeyAddr),
		Mask:           v.String(KeyMask),
		Gateway:        v.String(KeyGateway),
		AddrFamily:     v.String(KeyAddrFamily),
	}
}

// Family returns the listening address family. An unset family is IPv4.
func (s *Settings) Family() string {
	if s.AddrFamily == FamilyINET6 {
		return FamilyINET6
	}
	return FamilyINET
}
