//go:build linux

package alsa

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// ListPlaybackDevices returns all available ALSA playback devices.
func ListPlaybackDevices() ([]Device, error) {
	return listDevices(StreamPlayback)
}

func listDevices(stream int32) ([]Device, error) {
	var devices []Device

	// Iterate through all sound cards
	for cardNum := 0; ; cardNum++ {
		// Try to open the control device
		ctlPath := fmt.Sprintf("/dev/snd/controlC%d", cardNum)
		ctlFd, err := syscall.Open(ctlPath, syscall.O_RDONLY, 0)
		if err != nil {
			if os.IsNotExist(err) || err == syscall.ENOENT {
				break // No more cards
			}
			continue // Skip this card
		}

		// Get card info
		cardInfo := sndCtlCardInfo{}
		if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlCardInfo, unsafe.Pointer(&cardInfo)); err != nil {
			syscall.Close(ctlFd)
			continue
		}

		// Enumerate PCM devices on this card
		deviceNum := int32(-1)
		for {
			if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlPCMNextDevice, unsafe.Pointer(&deviceNum)); err != nil {
				break
			}
			if deviceNum < 0 {
				break // No more devices
			}

			pcmInfo := sndPCMInfo{
				device:    uint32(deviceNum),
				subdevice: 0,
				stream:    stream,
			}

			if err := ioctl(uintptr(ctlFd), sndrvCtlIoctlPCMInfo, unsafe.Pointer(&pcmInfo)); err != nil {
				continue // Device doesn't support this stream direction
			}

			devices = append(devices, Device{
				CardNumber:   cardNum,
				CardID:       cstr(cardInfo.id[:]),
				CardName:     cstr(cardInfo.longname[:]),
				DeviceNumber: int(deviceNum),
				DeviceName:   cstr(pcmInfo.name[:]),
				ALSADevice:   FormatALSADevice(cardNum, int(deviceNum)),
			})
		}

		syscall.Close(ctlFd)
	}

	return devices, nil
}
