// Package settings validates the device settings file.
//
// The settings file is flat text, one KEY=VALUE per line:
//
//	SSID=workshop
//	KEY=hunter22
//	PORT=8080
//	STATIC=TRUE
//	ADDR=192.168.1.50
//	MASK=255.255.255.0
//	GATEWAY=192.168.1.1
//	ADDR_FAMILY=INET
//
// Each recognised key is declared by an Entry in a Schema (type, required,
// conditionally required, default, pattern). Unknown keys are ignored so
// newer settings files keep working with older firmware.
//
// Validation does not terminate the process. It returns a *ValidationError
// whose Kind says what went wrong; the caller decides whether that is fatal.
//
// Usage:
//
//	v := settings.NewValidator(settings.DefaultSchema())
//	s, err := v.Load("settings.txt")
//	if err != nil {
//	    log.Fatal("invalid settings", "error", err)
//	}
package settings
