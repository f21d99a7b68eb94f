// Command dashctl is the operator tool for the Platinum dashboard.
package main

func main() {
	Execute()
}
