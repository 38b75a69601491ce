// Command skyreport benchmarks Skytable commits and publishes the comparison.
package main

func main() {
	Execute()
}
