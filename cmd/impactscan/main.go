// Command impactscan scans a corporate document against a corpus of
// legislative bills and reports the bills whose articles conflict with the
// document's described practices.
package main

func main() {
	Execute()
}
