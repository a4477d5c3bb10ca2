// Package buzzer sounds on/off patterns on a single GPIO output.
//
// Two pin drivers are provided: SysfsPin writes the kernel's
// /sys/class/gpio value file, SimPin only records and logs transitions for
// development hosts without the hardware.
package buzzer
