// Package discovery locates LIFX bulbs on the local network.
//
// Two mechanisms are provided. The primary one is a UDP broadcast probe:
// a GetService frame is broadcast on the control port and every bulb
// answers with the service and port it speaks, which is exactly what the
// client needs to address it afterwards. The secondary one is mDNS:
// HomeKit-capable bulbs also advertise themselves as "_hap._tcp"
// accessories, which makes them visible even when broadcast traffic is
// filtered.
//
// Both mechanisms produce the same Device record, and Merge folds the
// two views together, preferring the LAN record (it carries the
// controllable UDP port) and keeping mDNS niceties like the model name.
//
// # Usage Example
//
//	client, err := lan.CreateBroadcast(lan.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	scanner := discovery.NewLANScanner(client)
//	devices, err := scanner.Scan(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, device := range devices {
//	    fmt.Println(device) // Device d073d50a1b2c at 192.168.1.50:56700
//	}
//
// # Network Requirements
//
//   - The broadcast probe needs UDP broadcast permitted on the segment
//   - mDNS needs multicast support and UDP port 5353 open
//   - Bulbs must be on the same local network segment
//
// # Thread Safety
//
// Scanners are safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
